// SPDX-License-Identifier: GPL-3.0-or-later

package node

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/cla"
	"github.com/spacearth/sdtn-go/pkg/cla/stcp"
	"github.com/spacearth/sdtn-go/pkg/routing"
	"github.com/spacearth/sdtn-go/pkg/storage"
)

// Forwarding outcomes. ErrNothingToSend and ErrNoNeighbors describe an idle
// network situation, not a fault; only ErrTransmissionFailed means an actual
// transmission went wrong.
var (
	// ErrNothingToSend is returned when a Bundle is expired or exhausted
	// its forwarding attempts.
	ErrNothingToSend = errors.New("nothing to send")

	// ErrNoNeighbors is returned when the routing algorithm selected no
	// eligible peer.
	ErrNoNeighbors = errors.New("no reachable neighbors")

	// ErrTransmissionFailed is returned when every selected peer refused
	// or failed the transmission.
	ErrTransmissionFailed = errors.New("transmission failed")
)

// DefaultMaxForwardingAttempts bounds per-bundle forwarding retries if the
// configuration does not.
const DefaultMaxForwardingAttempts uint = 8

// Config holds a Node's identity and file system layout.
type Config struct {
	// NodeID is this node's own Endpoint ID, the source of locally
	// created Bundles.
	NodeID bpv7.EndpointID

	// StoreDir holds pending Bundles awaiting forwarding.
	StoreDir string

	// DispatchedDir receives Bundles after an acknowledged transmission.
	DispatchedDir string

	// RoutingAlgorithm names the algorithm, e.g., "epidemic". Unknown
	// names fall back to epidemic routing.
	RoutingAlgorithm string

	// MaxForwardingAttempts bounds retries per Bundle; zero selects
	// DefaultMaxForwardingAttempts.
	MaxForwardingAttempts uint
}

// Node is one DTN node: a persistent store of pending Bundles, a routing
// algorithm with its per-bundle forwarding state, a routing table and the
// registry of known peers.
type Node struct {
	config    Config
	store     *storage.Store
	algorithm routing.Algorithm
	table     *routing.Table
	manager   *cla.Manager

	// descriptors keeps the transient forwarding state per pending
	// Bundle, keyed by the descriptor's logical ID. Dispatched and
	// cleaned up Bundles lose their descriptor.
	descriptorsMutex sync.Mutex
	descriptors      map[string]*routing.BundleDescriptor
}

// New creates a Node from its Config, creating the store directory if
// needed. Bundles already present in the store get fresh forwarding state.
func New(config Config) (*Node, error) {
	if config.NodeID.IsNull() {
		return nil, fmt.Errorf("node requires a non-null Endpoint ID")
	}
	if config.MaxForwardingAttempts == 0 {
		config.MaxForwardingAttempts = DefaultMaxForwardingAttempts
	}

	store, err := storage.NewStore(config.StoreDir)
	if err != nil {
		return nil, fmt.Errorf("opening store failed: %w", err)
	}

	n := &Node{
		config:      config,
		store:       store,
		algorithm:   routing.AlgorithmFor(config.RoutingAlgorithm),
		table:       routing.NewTable(),
		descriptors: make(map[string]*routing.BundleDescriptor),
	}
	n.manager = cla.NewManager(n.HandleInbound)

	if err := n.restoreDescriptors(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"node":    config.NodeID,
		"store":   config.StoreDir,
		"routing": config.RoutingAlgorithm,
	}).Info("Node created")

	return n, nil
}

// restoreDescriptors rebuilds forwarding state for Bundles which survived a
// restart in the store. The already-sent sets start empty; peers may receive
// duplicates after a restart, which epidemic routing tolerates.
func (n *Node) restoreDescriptors() error {
	ids, err := n.store.List()
	if err != nil {
		return fmt.Errorf("listing store failed: %w", err)
	}

	for _, id := range ids {
		b, err := n.store.Load(id)
		if err != nil {
			log.WithFields(log.Fields{
				"bundle": id,
				"error":  err,
			}).Warn("Skipping unreadable stored bundle")
			continue
		}

		n.trackBundle(b)
	}

	return nil
}

// trackBundle registers forwarding state for a Bundle and notifies the
// routing algorithm. Re-tracking a known Bundle keeps the existing state.
func (n *Node) trackBundle(b bpv7.Bundle) *routing.BundleDescriptor {
	descriptor := routing.NewBundleDescriptor(b)

	n.descriptorsMutex.Lock()
	if known, exists := n.descriptors[descriptor.ID()]; exists {
		n.descriptorsMutex.Unlock()
		return known
	}
	n.descriptors[descriptor.ID()] = descriptor
	n.descriptorsMutex.Unlock()

	n.algorithm.NotifyNewBundle(descriptor)
	return descriptor
}

// untrackBundle drops the forwarding state of a Bundle.
func (n *Node) untrackBundle(descriptor *routing.BundleDescriptor) {
	n.descriptorsMutex.Lock()
	defer n.descriptorsMutex.Unlock()

	delete(n.descriptors, descriptor.ID())
}

// Descriptors returns a snapshot of all tracked forwarding states.
func (n *Node) Descriptors() []*routing.BundleDescriptor {
	n.descriptorsMutex.Lock()
	defer n.descriptorsMutex.Unlock()

	descriptors := make([]*routing.BundleDescriptor, 0, len(n.descriptors))
	for _, descriptor := range n.descriptors {
		descriptors = append(descriptors, descriptor)
	}

	return descriptors
}

// InsertPayload creates a Bundle from this node to the destination, stores
// it and tracks it for forwarding.
func (n *Node) InsertPayload(destination bpv7.EndpointID, payload []byte) (bpv7.Bundle, error) {
	b := bpv7.NewBundle(n.config.NodeID, destination, payload)

	if err := n.store.Insert(b); err != nil {
		return bpv7.Bundle{}, fmt.Errorf("storing bundle failed: %w", err)
	}
	n.trackBundle(b)

	log.WithField("bundle", b).Info("Inserted local bundle")
	return b, nil
}

// HandleInbound stores a Bundle received from a peer and tracks it for
// further forwarding. It is this Node's receive callback and must be safe
// for concurrent use.
func (n *Node) HandleInbound(b bpv7.Bundle) {
	if b.IsExpired() {
		log.WithField("bundle", b).Debug("Discarding expired inbound bundle")
		return
	}

	if err := n.store.Insert(b); err != nil {
		log.WithFields(log.Fields{
			"bundle": b,
			"error":  err,
		}).Warn("Storing inbound bundle failed")
		return
	}
	n.trackBundle(b)

	log.WithField("bundle", b).Info("Received bundle")
}

// ListBundles returns the IDs of all pending Bundles.
func (n *Node) ListBundles() ([]string, error) {
	return n.store.List()
}

// ShowBundle loads a pending Bundle by its full or partial ID.
func (n *Node) ShowBundle(partialID string) (bpv7.Bundle, error) {
	return n.store.LoadByPartialID(partialID)
}

// CleanupExpired removes expired Bundles from the store and drops their
// forwarding state.
func (n *Node) CleanupExpired() error {
	for _, descriptor := range n.Descriptors() {
		if descriptor.Bundle.IsExpired() {
			n.untrackBundle(descriptor)
		}
	}

	return n.store.CleanupExpired()
}

// AddRoute inserts a static route into this Node's routing table.
func (n *Node) AddRoute(entry routing.RouteEntry) {
	n.table.AddRoute(entry)
}

// AllRoutes returns every active route of this Node.
func (n *Node) AllRoutes() []routing.RouteEntry {
	return n.table.AllRoutes()
}

// FindBestRoute returns the cheapest active route towards a destination.
func (n *Node) FindBestRoute(destination bpv7.EndpointID) (routing.RouteEntry, bool) {
	return n.table.FindBestRoute(destination)
}

// RegisterPeer adds a Peer to this Node's registry.
func (n *Node) RegisterPeer(peer cla.Peer) {
	n.manager.RegisterPeer(peer)
}

// Peers returns a snapshot of all registered Peers.
func (n *Node) Peers() []cla.Peer {
	return n.manager.AllPeers()
}

// SelectPeersForForwarding asks the routing algorithm which registered
// peers a Bundle should go to next.
func (n *Node) SelectPeersForForwarding(descriptor *routing.BundleDescriptor) []cla.Peer {
	return n.algorithm.SelectPeersForForwarding(descriptor, n.manager.AllPeers())
}

// SelectReachablePeersForForwarding is the connectivity-aware variant of
// SelectPeersForForwarding.
func (n *Node) SelectReachablePeersForForwarding(descriptor *routing.BundleDescriptor) []cla.Peer {
	return n.algorithm.SelectReachablePeersForForwarding(descriptor, n.manager.AllPeers())
}

// SelectRoutesForForwarding asks the routing algorithm for candidate routes
// from this Node's routing table.
func (n *Node) SelectRoutesForForwarding(descriptor *routing.BundleDescriptor) []routing.RouteEntry {
	return n.algorithm.SelectRoutesForForwarding(descriptor, n.table)
}

// ForwardBundle attempts one forwarding round for a Bundle: the routing
// algorithm selects reachable peers, each selected peer supporting direct
// transmission receives the Bundle, and peers which acknowledged it enter
// the already-sent set. After at least one acknowledged transmission the
// Bundle is dispatched out of the store.
//
// The attempt counter increases once per round, not per peer.
func (n *Node) ForwardBundle(descriptor *routing.BundleDescriptor) error {
	if !descriptor.IsReadyForForwarding(n.config.MaxForwardingAttempts) {
		return ErrNothingToSend
	}

	peers := n.SelectReachablePeersForForwarding(descriptor)
	if len(peers) == 0 {
		return ErrNoNeighbors
	}

	descriptor.IncrementForwardingAttempts()

	var (
		sent int
		errs *multierror.Error
	)

	for _, peer := range peers {
		sender, ok := peer.(cla.Sender)
		if !ok {
			log.WithFields(log.Fields{
				"bundle": descriptor.ID(),
				"peer":   peer.EndpointID(),
			}).Debug("Peer does not support direct transmission")
			continue
		}

		if err := sender.Send(descriptor.Bundle); err != nil {
			log.WithFields(log.Fields{
				"bundle": descriptor.ID(),
				"peer":   peer.EndpointID(),
				"error":  err,
			}).Warn("Transmission failed")

			errs = multierror.Append(errs, err)
			continue
		}

		descriptor.MarkSent(peer.EndpointID())
		sent++

		log.WithFields(log.Fields{
			"bundle": descriptor.ID(),
			"peer":   peer.EndpointID(),
		}).Info("Forwarded bundle")
	}

	if sent == 0 {
		if errs.ErrorOrNil() == nil {
			return ErrNoNeighbors
		}
		return fmt.Errorf("%w: %v", ErrTransmissionFailed, errs)
	}

	if err := n.store.DispatchOne(descriptor.Bundle, n.config.DispatchedDir); err != nil {
		return fmt.Errorf("dispatching bundle failed: %w", err)
	}
	n.untrackBundle(descriptor)

	return nil
}

// ForwardStored runs one forwarding round over every tracked Bundle. Idle
// outcomes are skipped; real failures are collected.
func (n *Node) ForwardStored() error {
	var errs *multierror.Error

	for _, descriptor := range n.Descriptors() {
		err := n.ForwardBundle(descriptor)
		if err == nil || errors.Is(err, ErrNothingToSend) || errors.Is(err, ErrNoNeighbors) {
			continue
		}

		errs = multierror.Append(errs, err)
	}

	return errs.ErrorOrNil()
}

// StartListener runs a stream transport Listener for this Node on the given
// listen address. Inbound Bundles flow through the Manager's dispatch into
// HandleInbound.
func (n *Node) StartListener(listenAddress string) *stcp.Listener {
	listener := stcp.NewListener(listenAddress, n.manager.NotifyReceive)

	go func() {
		if err := listener.Activate(); err != nil {
			log.WithFields(log.Fields{
				"cla":   listener.Address(),
				"error": err,
			}).Error("Listener failed")
		}
	}()

	return listener
}

// DrainTo sends every pending Bundle to the given address and dispatches
// the acknowledged ones, the dialing counterpart of StartListener.
func (n *Node) DrainTo(address string) error {
	client := stcp.NewClient(address, n.store, n.config.DispatchedDir)
	if err := client.Activate(); err != nil {
		return err
	}

	// Dispatched Bundles lose their forwarding state.
	for _, descriptor := range n.Descriptors() {
		if _, err := n.store.Load(storage.BundleID(descriptor.Bundle)); err != nil {
			n.untrackBundle(descriptor)
		}
	}

	return nil
}

// NodeID returns this node's own Endpoint ID.
func (n *Node) NodeID() bpv7.EndpointID {
	return n.config.NodeID
}
