// SPDX-License-Identifier: GPL-3.0-or-later

package cla

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

// ReceiveCallback is invoked for every successfully decoded inbound Bundle.
type ReceiveCallback func(b bpv7.Bundle)

// Manager keeps the registry of known Peers, deduplicated by their Endpoint
// ID, and owns the one process-wide receive callback for inbound Bundles.
//
// The registry is read-heavy; a RWMutex permits concurrent reads while
// serializing registrations.
type Manager struct {
	callback ReceiveCallback

	mutex sync.RWMutex
	peers map[bpv7.EndpointID]Peer
}

// NewManager creates a Manager with the given receive callback. The callback
// is dispatched in its own goroutine per Bundle and must be thread-safe.
func NewManager(callback ReceiveCallback) *Manager {
	return &Manager{
		callback: callback,
		peers:    make(map[bpv7.EndpointID]Peer),
	}
}

// RegisterPeer adds a Peer to the registry, unless its Endpoint ID is
// already known. The Peer's Activate method is started in its own goroutine;
// an activation failure is logged, but the Peer stays registered. An
// unreachable peer is still tracked and may become reachable later.
func (manager *Manager) RegisterPeer(peer Peer) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	peerID := peer.EndpointID()
	if _, exists := manager.peers[peerID]; exists {
		log.WithFields(log.Fields{
			"peer":    peerID,
			"address": peer.Address(),
		}).Info("Peer registration aborted, Endpoint ID is already known")

		return
	}

	manager.peers[peerID] = peer

	go func() {
		if err := peer.Activate(); err != nil {
			log.WithFields(log.Fields{
				"peer":    peerID,
				"address": peer.Address(),
				"error":   err,
			}).Warn("Activating Peer failed")
		}
	}()

	log.WithFields(log.Fields{
		"peer":    peerID,
		"cla":     peer.Type(),
		"address": peer.Address(),
	}).Info("Registered Peer")
}

// AllPeers returns a snapshot of every registered Peer, regardless of its
// reachability.
func (manager *Manager) AllPeers() []Peer {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	peers := make([]Peer, 0, len(manager.peers))
	for _, peer := range manager.peers {
		peers = append(peers, peer)
	}

	return peers
}

// ReachablePeers probes every registered Peer and returns only the reachable
// subset. The probes run concurrently; the registry lock is not held while
// probing.
func (manager *Manager) ReachablePeers() []Peer {
	peers := manager.AllPeers()

	var (
		wg        sync.WaitGroup
		mutex     sync.Mutex
		reachable []Peer
	)

	wg.Add(len(peers))
	for _, peer := range peers {
		go func(peer Peer) {
			defer wg.Done()

			if peer.IsReachable() {
				mutex.Lock()
				reachable = append(reachable, peer)
				mutex.Unlock()
			}
		}(peer)
	}
	wg.Wait()

	return reachable
}

// NotifyReceive dispatches an inbound Bundle to the receive callback as an
// independent unit of work. A transport's read loop calling this method is
// never blocked by the callback's processing.
func (manager *Manager) NotifyReceive(b bpv7.Bundle) {
	if manager.callback == nil {
		log.WithField("bundle", b).Warn("No receive callback configured, dropping Bundle")
		return
	}

	go manager.callback(b)
}
