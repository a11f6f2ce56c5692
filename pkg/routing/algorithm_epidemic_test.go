// SPDX-License-Identifier: GPL-3.0-or-later

package routing

import (
	"testing"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/cla"
)

// testPeer is a minimal cla.Peer for algorithm tests.
type testPeer struct {
	endpointID bpv7.EndpointID
	reachable  bool
}

func newTestPeer(eid string, reachable bool) *testPeer {
	return &testPeer{
		endpointID: bpv7.NewEndpointID(eid),
		reachable:  reachable,
	}
}

func (peer *testPeer) Address() string {
	return "test://" + peer.endpointID.String()
}

func (peer *testPeer) Activate() error {
	return nil
}

func (peer *testPeer) EndpointID() bpv7.EndpointID {
	return peer.endpointID
}

func (peer *testPeer) IsReachable() bool {
	return peer.reachable
}

func (peer *testPeer) Type() cla.Type {
	return cla.TCP
}

func (peer *testPeer) ConnectionAddress() string {
	return "127.0.0.1:4556"
}

func peerEndpoints(peers []cla.Peer) map[bpv7.EndpointID]struct{} {
	eids := make(map[bpv7.EndpointID]struct{})
	for _, peer := range peers {
		eids[peer.EndpointID()] = struct{}{}
	}
	return eids
}

func TestEpidemicSelectPeersDeduplicates(t *testing.T) {
	er := NewEpidemicRouting()
	descriptor := NewBundleDescriptor(bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dst"), []byte("hello")))

	peers := []cla.Peer{
		newTestPeer("dtn://p1", true),
		newTestPeer("dtn://p2", true),
		newTestPeer("dtn://p1", true),
	}

	selected := er.SelectPeersForForwarding(descriptor, peers)
	if len(selected) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(selected))
	}

	eids := peerEndpoints(selected)
	for _, expected := range []string{"dtn://p1", "dtn://p2"} {
		if _, ok := eids[bpv7.NewEndpointID(expected)]; !ok {
			t.Fatalf("peer %s missing from selection", expected)
		}
	}
}

func TestEpidemicSelectPeersExcludesAlreadySent(t *testing.T) {
	er := NewEpidemicRouting()
	descriptor := NewBundleDescriptor(bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dst"), []byte("hello")))
	descriptor.MarkSent(bpv7.NewEndpointID("dtn://p1"))

	peers := []cla.Peer{
		newTestPeer("dtn://p1", true),
		newTestPeer("dtn://p2", true),
	}

	selected := er.SelectPeersForForwarding(descriptor, peers)
	if len(selected) != 1 {
		t.Fatalf("expected 1 peer, got %d", len(selected))
	}
	if selected[0].EndpointID() != bpv7.NewEndpointID("dtn://p2") {
		t.Fatalf("unexpected peer selected: %v", selected[0].EndpointID())
	}
}

func TestEpidemicSelectPeersIgnoresDestination(t *testing.T) {
	er := NewEpidemicRouting()
	descriptor := NewBundleDescriptor(bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dst"), []byte("hello")))

	// None of the peers is the destination; flooding selects them anyway.
	peers := []cla.Peer{
		newTestPeer("dtn://elsewhere1", true),
		newTestPeer("dtn://elsewhere2", true),
	}

	if selected := er.SelectPeersForForwarding(descriptor, peers); len(selected) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(selected))
	}
}

func TestEpidemicSelectReachablePeers(t *testing.T) {
	er := NewEpidemicRouting()
	descriptor := NewBundleDescriptor(bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dst"), []byte("hello")))

	peers := []cla.Peer{
		newTestPeer("dtn://up", true),
		newTestPeer("dtn://down", false),
	}

	selected := er.SelectReachablePeersForForwarding(descriptor, peers)
	if len(selected) != 1 {
		t.Fatalf("expected 1 peer, got %d", len(selected))
	}
	if selected[0].EndpointID() != bpv7.NewEndpointID("dtn://up") {
		t.Fatalf("unexpected peer selected: %v", selected[0].EndpointID())
	}
}

func TestEpidemicSelectRoutes(t *testing.T) {
	er := NewEpidemicRouting()
	descriptor := NewBundleDescriptor(bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dst"), []byte("hello")))
	descriptor.MarkSent(bpv7.NewEndpointID("dtn://sent"))

	table := NewTable()
	table.AddRoute(RouteEntry{
		Destination: bpv7.NewEndpointID("dtn://dst"),
		NextHop:     bpv7.NewEndpointID("dtn://sent"),
		CLAType:     "tcp",
		Cost:        1,
		IsActive:    true,
	})
	table.AddRoute(RouteEntry{
		Destination: bpv7.NewEndpointID("dtn://dst"),
		NextHop:     bpv7.NewEndpointID("dtn://fresh"),
		CLAType:     "tcp",
		Cost:        2,
		IsActive:    true,
	})
	table.AddRoute(RouteEntry{
		Destination: bpv7.NewEndpointID("dtn://other"),
		NextHop:     bpv7.NewEndpointID("dtn://fresh"),
		CLAType:     "tcp",
		Cost:        3,
		IsActive:    true,
	})
	table.AddRoute(RouteEntry{
		Destination: bpv7.NewEndpointID("dtn://dst"),
		NextHop:     bpv7.NewEndpointID("dtn://inactive"),
		CLAType:     "tcp",
		Cost:        4,
		IsActive:    false,
	})

	selected := er.SelectRoutesForForwarding(descriptor, table)
	if len(selected) != 1 {
		t.Fatalf("expected 1 route, got %d", len(selected))
	}
	if selected[0].NextHop != bpv7.NewEndpointID("dtn://fresh") {
		t.Fatalf("unexpected next hop: %v", selected[0].NextHop)
	}
}

func TestAlgorithmForFallback(t *testing.T) {
	for _, name := range []string{"", "epidemic", "prophet", "nonsense"} {
		if _, ok := AlgorithmFor(name).(*EpidemicRouting); !ok {
			t.Fatalf("algorithm %q did not resolve to epidemic routing", name)
		}
	}
}
