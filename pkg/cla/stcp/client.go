// SPDX-License-Identifier: GPL-3.0-or-later

package stcp

import (
	"fmt"
	"net"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/storage"
)

// Client is the dialing role of the stream transport: one activation drains
// the local store towards one remote. Acknowledged Bundles are dispatched
// into the dispatched area; rejected ones stay in the store for a later
// activation.
type Client struct {
	address       string
	store         *storage.Store
	dispatchedDir string
}

// NewClient creates a Client draining the given store towards the address.
func NewClient(address string, store *storage.Store, dispatchedDir string) *Client {
	return &Client{
		address:       address,
		store:         store,
		dispatchedDir: dispatchedDir,
	}
}

// Address returns this Client's descriptive address.
func (client *Client) Address() string {
	return fmt.Sprintf("stcp://%s", client.address)
}

// Activate connects to the remote and sends every stored Bundle over the one
// connection, one frame at a time. A Bundle is dispatched out of the store
// only after the remote acknowledged it without an error status. Per-bundle
// failures are collected and sending continues; only a connection failure
// aborts the whole activation.
func (client *Client) Activate() error {
	ids, err := client.store.List()
	if err != nil {
		return fmt.Errorf("listing store failed: %w", err)
	}
	if len(ids) == 0 {
		log.WithField("cla", client.Address()).Debug("Store is empty, nothing to send")
		return nil
	}

	conn, err := net.DialTimeout("tcp", client.address, connTimeout)
	if err != nil {
		return fmt.Errorf("connecting to %s failed: %w", client.address, err)
	}
	defer func() { _ = conn.Close() }()

	logger := log.WithFields(log.Fields{
		"cla":     client.Address(),
		"bundles": len(ids),
	})
	logger.Info("Draining store")

	var errs *multierror.Error
	for _, id := range ids {
		if err := client.sendStored(conn, id); err != nil {
			logger.WithFields(log.Fields{
				"bundle": id,
				"error":  err,
			}).Warn("Sending stored bundle failed")

			errs = multierror.Append(errs, err)
		}
	}

	return errs.ErrorOrNil()
}

// sendStored transmits one stored Bundle and dispatches it on success.
func (client *Client) sendStored(conn net.Conn, id string) error {
	b, err := client.store.Load(id)
	if err != nil {
		return err
	}

	if err := writeFrame(conn, b); err != nil {
		return fmt.Errorf("sending frame failed: %w", err)
	}

	ack, err := readAck(conn)
	if err != nil {
		return fmt.Errorf("reading acknowledgement failed: %w", err)
	}
	if ack == ackError {
		return fmt.Errorf("remote rejected bundle %s", id)
	}

	log.WithFields(log.Fields{
		"cla":    client.Address(),
		"bundle": b,
		"ack":    ack,
	}).Debug("Bundle was acknowledged")

	return client.store.DispatchOne(b, client.dispatchedDir)
}
