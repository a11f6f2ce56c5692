// SPDX-License-Identifier: GPL-3.0-or-later

package cla

import (
	"reflect"
	"testing"
	"time"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

func TestManagerRegisterPeerDeduplicates(t *testing.T) {
	manager := NewManager(nil)

	manager.RegisterPeer(newMockPeer("dtn://node1", true))
	manager.RegisterPeer(newMockPeer("dtn://node1", true))
	manager.RegisterPeer(newMockPeer("dtn://node2", true))

	if peers := manager.AllPeers(); len(peers) != 2 {
		t.Fatalf("found %d peers, expected 2", len(peers))
	}
}

func TestManagerRegisterPeerActivationFailure(t *testing.T) {
	manager := NewManager(nil)

	peer := newMockPeer("dtn://node1", false)
	peer.activable = false
	manager.RegisterPeer(peer)

	// A failed activation must not remove the peer from the registry.
	if peers := manager.AllPeers(); len(peers) != 1 {
		t.Fatalf("found %d peers, expected 1", len(peers))
	}
}

func TestManagerReachablePeers(t *testing.T) {
	manager := NewManager(nil)

	manager.RegisterPeer(newMockPeer("dtn://node1", true))
	manager.RegisterPeer(newMockPeer("dtn://node2", false))
	manager.RegisterPeer(newMockPeer("dtn://node3", true))

	reachable := manager.ReachablePeers()
	if len(reachable) != 2 {
		t.Fatalf("found %d reachable peers, expected 2", len(reachable))
	}
	for _, peer := range reachable {
		if peer.EndpointID() == bpv7.NewEndpointID("dtn://node2") {
			t.Fatal("unreachable peer was returned")
		}
	}
}

func TestManagerNotifyReceive(t *testing.T) {
	bundleChan := make(chan bpv7.Bundle, 1)
	manager := NewManager(func(b bpv7.Bundle) {
		bundleChan <- b
	})

	b := bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dest"), []byte("hello"))
	manager.NotifyReceive(b)

	select {
	case received := <-bundleChan:
		if !reflect.DeepEqual(b, received) {
			t.Fatalf("received bundle differs: %v, %v", b, received)
		}

	case <-time.After(time.Second):
		t.Fatal("receive callback was not invoked")
	}
}

func TestManagerNotifyReceiveWithoutCallback(t *testing.T) {
	manager := NewManager(nil)

	// Must not panic.
	manager.NotifyReceive(bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dest"), nil))
}
