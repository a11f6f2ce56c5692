// SPDX-License-Identifier: GPL-3.0-or-later

package routing

import (
	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/cla"
)

// EpidemicRouting implements flooding: every bundle is forwarded to every
// known peer it has not been sent to before, regardless of the bundle's
// destination. Duplicate suppression happens through the descriptor's
// already-sent set, not through any algorithm-internal state.
type EpidemicRouting struct{}

// NewEpidemicRouting creates a new stateless EpidemicRouting Algorithm.
func NewEpidemicRouting() *EpidemicRouting {
	return &EpidemicRouting{}
}

// NotifyNewBundle is a no-op; epidemic routing keeps no per-bundle state
// beyond the descriptor itself.
func (_ *EpidemicRouting) NotifyNewBundle(descriptor *BundleDescriptor) {
	log.WithField("bundle", descriptor.ID()).Debug("EpidemicRouting noticed new bundle")
}

// SelectPeersForForwarding selects all distinct candidate peers the bundle
// has not been sent to yet. The bundle's destination is ignored.
func (_ *EpidemicRouting) SelectPeersForForwarding(descriptor *BundleDescriptor, peers []cla.Peer) (selected []cla.Peer) {
	seen := make(map[bpv7.EndpointID]struct{})

	for _, peer := range peers {
		eid := peer.EndpointID()
		if _, ok := seen[eid]; ok {
			continue
		}
		if descriptor.HasBeenSentTo(eid) {
			continue
		}

		seen[eid] = struct{}{}
		selected = append(selected, peer)
	}

	log.WithFields(log.Fields{
		"bundle": descriptor.ID(),
		"peers":  len(selected),
	}).Debug("EpidemicRouting selected peers for forwarding")

	return
}

// SelectReachablePeersForForwarding selects peers like
// SelectPeersForForwarding, but additionally probes each eligible peer and
// drops unreachable ones.
func (er *EpidemicRouting) SelectReachablePeersForForwarding(descriptor *BundleDescriptor, peers []cla.Peer) (selected []cla.Peer) {
	for _, peer := range er.SelectPeersForForwarding(descriptor, peers) {
		if !peer.IsReachable() {
			log.WithFields(log.Fields{
				"bundle": descriptor.ID(),
				"peer":   peer.EndpointID(),
			}).Debug("EpidemicRouting skips unreachable peer")
			continue
		}

		selected = append(selected, peer)
	}
	return
}

// SelectRoutesForForwarding selects all active routes whose next hop has
// not received this bundle yet, deduplicated by next hop.
func (_ *EpidemicRouting) SelectRoutesForForwarding(descriptor *BundleDescriptor, table *Table) (selected []RouteEntry) {
	seen := make(map[bpv7.EndpointID]struct{})

	for _, route := range table.AllRoutes() {
		if _, ok := seen[route.NextHop]; ok {
			continue
		}
		if descriptor.HasBeenSentTo(route.NextHop) {
			continue
		}

		seen[route.NextHop] = struct{}{}
		selected = append(selected, route)
	}
	return
}
