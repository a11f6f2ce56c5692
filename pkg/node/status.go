// SPDX-License-Identifier: GPL-3.0-or-later

package node

import (
	"errors"
	"fmt"

	"github.com/spacearth/sdtn-go/pkg/storage"
)

// Status is a point-in-time summary of a Node, as reported to operators
// over the REST agent or the command line.
type Status struct {
	NodeID         string `json:"node_id"`
	Routing        string `json:"routing"`
	PendingBundles int    `json:"pending_bundles"`
	ActiveBundles  int    `json:"active_bundles"`
	ExpiredBundles int    `json:"expired_bundles"`
	Peers          int    `json:"peers"`
	Routes         int    `json:"routes"`
}

func (status Status) String() string {
	return fmt.Sprintf("Node %s: %d pending bundles (%d active, %d expired), %d peers, %d routes",
		status.NodeID, status.PendingBundles, status.ActiveBundles, status.ExpiredBundles,
		status.Peers, status.Routes)
}

// Status summarizes this Node's current state. Each pending Bundle is loaded
// to split the total into active and expired counts; a Bundle listed but
// gone at load time, e.g., dispatched concurrently, is skipped.
func (n *Node) Status() (Status, error) {
	ids, err := n.store.List()
	if err != nil {
		return Status{}, fmt.Errorf("listing store failed: %w", err)
	}

	var active, expired int
	for _, id := range ids {
		b, loadErr := n.store.Load(id)
		if errors.Is(loadErr, storage.ErrBundleNotFound) {
			continue
		} else if loadErr != nil {
			return Status{}, fmt.Errorf("loading bundle %s failed: %w", id, loadErr)
		}

		if b.IsExpired() {
			expired++
		} else {
			active++
		}
	}

	algorithm := n.config.RoutingAlgorithm
	if algorithm == "" {
		algorithm = "epidemic"
	}

	return Status{
		NodeID:         n.config.NodeID.String(),
		Routing:        algorithm,
		PendingBundles: active + expired,
		ActiveBundles:  active,
		ExpiredBundles: expired,
		Peers:          len(n.manager.AllPeers()),
		Routes:         len(n.table.AllRoutes()),
	}, nil
}
