// SPDX-License-Identifier: GPL-3.0-or-later

// Package cla defines the interfaces for Convergence Layer Adapters (CLAs)
// next to a Manager to keep an inventory of known peers.
//
// A ConvergenceLayer is anything with an activatable main loop, both the
// listening and the dialing role of a transport. A Peer is a handle to one
// remote node reachable over some transport. Routing code operates on those
// interfaces only and never on concrete transport types.
package cla

import (
	"fmt"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

// Type is one of the supported Convergence Layer Adapters.
type Type uint

const (
	// TCP is the length-prefixed stream transport over TCP.
	TCP Type = 0

	// BLE is a Bluetooth Low Energy transport. Its implementation is
	// hardware-bound and lives outside of this repository; the constant
	// exists for routing table entries and discovery announcements.
	BLE Type = 1
)

// CheckValid returns an error for an unknown Type.
func (t Type) CheckValid() error {
	switch t {
	case TCP, BLE:
		return nil
	default:
		return fmt.Errorf("unknown CLA type %d", uint(t))
	}
}

func (t Type) String() string {
	switch t {
	case TCP:
		return "tcp"
	case BLE:
		return "ble"
	default:
		return "unknown"
	}
}

// ConvergenceLayer is an activatable transport endpoint.
type ConvergenceLayer interface {
	// Address returns a stable descriptive string, used for deduplication
	// and logging.
	Address() string

	// Activate runs this transport's main loop, the accept loop for a
	// listening role or the send loop for a dialing role. It does not
	// return until the loop ends or fails.
	Activate() error
}

// Peer is a transport-agnostic handle to a remote node. Peer values are
// copyable handles; a snapshot of peers can be passed around without
// holding any registry lock.
type Peer interface {
	ConvergenceLayer

	// EndpointID returns the peer's identity.
	EndpointID() bpv7.EndpointID

	// IsReachable probes the peer, e.g., by attempting a connection with a
	// bounded timeout, without keeping a connection open for data.
	IsReachable() bool

	// Type returns the transport kind of this Peer.
	Type() Type

	// ConnectionAddress returns the address used to reach this Peer.
	ConnectionAddress() string
}

// Sender is the capability to transmit a single Bundle to a Peer. Transports
// which support direct transmission implement this next to Peer.
type Sender interface {
	// Send transmits the Bundle and blocks until the peer acknowledged it
	// or an error occurred.
	Send(b bpv7.Bundle) error
}
