// SPDX-License-Identifier: GPL-3.0-or-later

package stcp

import (
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/cla"
)

// Peer is a remote node reachable over the stream transport. It implements
// cla.Peer for the registry and cla.Sender for direct transmission.
type Peer struct {
	endpointID        bpv7.EndpointID
	connectionAddress string
}

// NewPeer creates a Peer with the given identity, reachable under the
// "host:port" connection address.
func NewPeer(endpointID bpv7.EndpointID, connectionAddress string) *Peer {
	return &Peer{
		endpointID:        endpointID,
		connectionAddress: connectionAddress,
	}
}

// Address returns this Peer's descriptive address.
func (peer *Peer) Address() string {
	return fmt.Sprintf("stcp://%s", peer.connectionAddress)
}

// Activate probes this Peer once to log its initial reachability. The stream
// transport needs no standing connection, so there is no loop to run.
func (peer *Peer) Activate() error {
	log.WithFields(log.Fields{
		"peer":      peer.endpointID,
		"address":   peer.Address(),
		"reachable": peer.IsReachable(),
	}).Info("Peer activated")

	return nil
}

// EndpointID returns the peer's identity.
func (peer *Peer) EndpointID() bpv7.EndpointID {
	return peer.endpointID
}

// IsReachable probes the peer by establishing a connection with a bounded
// timeout. The connection is closed right away; no payload travels.
func (peer *Peer) IsReachable() bool {
	start := time.Now()

	conn, err := net.DialTimeout("tcp", peer.connectionAddress, connTimeout)
	if err != nil {
		log.WithFields(log.Fields{
			"peer":    peer.endpointID,
			"address": peer.Address(),
			"error":   err,
		}).Debug("Peer is unreachable")

		return false
	}
	_ = conn.Close()

	log.WithFields(log.Fields{
		"peer":    peer.endpointID,
		"address": peer.Address(),
		"rtt":     time.Since(start),
	}).Debug("Peer is reachable")

	return true
}

// Type returns the transport kind of this Peer.
func (peer *Peer) Type() cla.Type {
	return cla.TCP
}

// ConnectionAddress returns the "host:port" address of this Peer.
func (peer *Peer) ConnectionAddress() string {
	return peer.connectionAddress
}

// Send transmits one Bundle in its own connection and waits for the peer's
// acknowledgement.
func (peer *Peer) Send(b bpv7.Bundle) error {
	conn, err := net.DialTimeout("tcp", peer.connectionAddress, connTimeout)
	if err != nil {
		return fmt.Errorf("connecting to %s failed: %w", peer.connectionAddress, err)
	}
	defer func() { _ = conn.Close() }()

	if err := writeFrame(conn, b); err != nil {
		return fmt.Errorf("sending frame failed: %w", err)
	}

	ack, err := readAck(conn)
	if err != nil {
		return fmt.Errorf("reading acknowledgement failed: %w", err)
	}
	if ack == ackError {
		return fmt.Errorf("peer %v rejected bundle %v", peer.endpointID, b)
	}

	return nil
}
