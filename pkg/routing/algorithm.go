// SPDX-License-Identifier: GPL-3.0-or-later

// Package routing implements per-bundle forwarding state, a cost-based
// routing table and pluggable routing algorithms for delay-tolerant
// networks.
package routing

import (
	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/cla"
)

// Algorithm is an interface to specify routing algorithms for
// delay-tolerant networks.
//
// NotifyNewBundle may mutate algorithm-internal statistics and requires
// exclusive access; the selection methods are read-only decisions over the
// given peer snapshot or routing table.
type Algorithm interface {
	// NotifyNewBundle notifies this Algorithm about new bundles. They
	// might be generated at this node or received from a peer. Whether an
	// algorithm acts on this information or ignores it, is implementation
	// matter.
	NotifyNewBundle(descriptor *BundleDescriptor)

	// SelectPeersForForwarding returns the subset of the candidate peers
	// this Bundle should be forwarded to. Peers in the descriptor's
	// already-sent set are excluded and repeated candidates are
	// deduplicated by their Endpoint ID.
	SelectPeersForForwarding(descriptor *BundleDescriptor, peers []cla.Peer) []cla.Peer

	// SelectReachablePeersForForwarding is the connectivity-aware variant
	// of SelectPeersForForwarding: still-eligible peers are additionally
	// probed and unreachable ones dropped.
	SelectReachablePeersForForwarding(descriptor *BundleDescriptor, peers []cla.Peer) []cla.Peer

	// SelectRoutesForForwarding is the routing table driven analogue of
	// the peer selection: all active routes whose next hop is not in the
	// already-sent set, deduplicated by next hop.
	SelectRoutesForForwarding(descriptor *BundleDescriptor, table *Table) []RouteEntry
}

// AlgorithmFor creates the routing Algorithm for the given configuration
// name. An unknown or unimplemented name falls back to epidemic routing
// with a warning and is never a hard failure.
func AlgorithmFor(name string) Algorithm {
	switch name {
	case "", "epidemic":
		return NewEpidemicRouting()

	case "prophet":
		// No distinct implementation yet; epidemic behaviour is the
		// documented fallback.
		log.Warn("Prophet routing is not implemented, falling back to epidemic")
		return NewEpidemicRouting()

	default:
		log.WithField("algorithm", name).Warn("Unknown routing algorithm, falling back to epidemic")
		return NewEpidemicRouting()
	}
}
