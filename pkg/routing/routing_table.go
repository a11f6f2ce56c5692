// SPDX-License-Identifier: GPL-3.0-or-later

package routing

import (
	"fmt"
	"sync"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

// RouteEntry describes one way to reach a destination: the next hop, the
// transport to use and a cost, where lower is better. Entries are soft
// deleted by clearing IsActive; inactive entries are excluded from every
// query.
type RouteEntry struct {
	Destination bpv7.EndpointID `json:"destination"`
	NextHop     bpv7.EndpointID `json:"next_hop"`
	CLAType     string          `json:"cla_type"`
	Cost        uint            `json:"cost"`
	IsActive    bool            `json:"is_active"`
}

func (entry RouteEntry) String() string {
	return fmt.Sprintf("RouteEntry(%v via %v, %s, cost %d)",
		entry.Destination, entry.NextHop, entry.CLAType, entry.Cost)
}

// Table maps destinations to their candidate routes. Multiple entries per
// destination are allowed for multipath setups. AddRoute is the only
// mutator; deactivation through an entry's IsActive flag is the only
// supported lifecycle transition.
//
// A Table is safe for concurrent use. All queries return copies.
type Table struct {
	mutex  sync.Mutex
	routes map[bpv7.EndpointID][]RouteEntry
}

// NewTable creates an empty routing Table.
func NewTable() *Table {
	return &Table{
		routes: make(map[bpv7.EndpointID][]RouteEntry),
	}
}

// AddRoute inserts a RouteEntry under its destination.
func (table *Table) AddRoute(entry RouteEntry) {
	table.mutex.Lock()
	defer table.mutex.Unlock()

	table.routes[entry.Destination] = append(table.routes[entry.Destination], entry)
}

// RoutesForDestination returns all active routes towards the destination.
func (table *Table) RoutesForDestination(destination bpv7.EndpointID) []RouteEntry {
	table.mutex.Lock()
	defer table.mutex.Unlock()

	var active []RouteEntry
	for _, entry := range table.routes[destination] {
		if entry.IsActive {
			active = append(active, entry)
		}
	}

	return active
}

// AllRoutes returns every active route of this Table.
func (table *Table) AllRoutes() []RouteEntry {
	table.mutex.Lock()
	defer table.mutex.Unlock()

	var active []RouteEntry
	for _, entries := range table.routes {
		for _, entry := range entries {
			if entry.IsActive {
				active = append(active, entry)
			}
		}
	}

	return active
}

// FindBestRoute returns the active route with the minimal cost for a
// destination. The boolean return indicates if such a route exists; a miss
// is a valid "no route" outcome, not an error.
func (table *Table) FindBestRoute(destination bpv7.EndpointID) (RouteEntry, bool) {
	var (
		best  RouteEntry
		found bool
	)

	for _, entry := range table.RoutesForDestination(destination) {
		if !found || entry.Cost < best.Cost {
			best = entry
			found = true
		}
	}

	return best, found
}
