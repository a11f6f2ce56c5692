// SPDX-License-Identifier: GPL-3.0-or-later

package stcp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/cla"
)

// Listener is the receiving role of the stream transport. It accepts
// connections on its listen address and reads Bundle frames from each,
// dispatching decoded Bundles through a callback.
type Listener struct {
	listenAddress string
	callback      cla.ReceiveCallback

	stopSyn chan struct{}
	stopAck chan struct{}
}

// NewListener creates a Listener for the given listen address. Decoded
// Bundles are handed to the callback; the callback is invoked from the
// connection's goroutine before the frame is acknowledged.
func NewListener(listenAddress string, callback cla.ReceiveCallback) *Listener {
	return &Listener{
		listenAddress: listenAddress,
		callback:      callback,
		stopSyn:       make(chan struct{}),
		stopAck:       make(chan struct{}),
	}
}

// Address returns this Listener's descriptive address.
func (listener *Listener) Address() string {
	return fmt.Sprintf("stcp://%s", listener.listenAddress)
}

// Activate binds the listen address and runs the accept loop. Each accepted
// connection is handled in its own goroutine. Activate blocks until Close is
// called or the listener breaks. Every exit acknowledges a pending or future
// Close, also when binding failed.
func (listener *Listener) Activate() error {
	defer close(listener.stopAck)

	tcpAddr, err := net.ResolveTCPAddr("tcp", listener.listenAddress)
	if err != nil {
		return err
	}

	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return err
	}

	log.WithField("address", listener.Address()).Info("Listener started")

	for {
		select {
		case <-listener.stopSyn:
			return ln.Close()

		default:
			if err := ln.SetDeadline(time.Now().Add(50 * time.Millisecond)); err != nil {
				_ = ln.Close()
				return err
			}
			if conn, err := ln.Accept(); err == nil {
				go listener.handleConnection(conn)
			}
		}
	}
}

// Close shuts the accept loop down and blocks until it acknowledged.
// Connections already accepted drain on their own.
func (listener *Listener) Close() {
	close(listener.stopSyn)
	<-listener.stopAck
}

// handleConnection reads frames until the peer closes the connection. A
// frame with an undecodable payload is answered with an error status and the
// loop continues; the length prefix keeps the stream aligned. Transport
// failures end the loop.
func (listener *Listener) handleConnection(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	logger := log.WithFields(log.Fields{
		"cla":  listener.Address(),
		"conn": conn.RemoteAddr(),
	})
	logger.Debug("Accepted connection")

	for {
		b, err := readFrame(conn)
		switch {
		case err == nil:
			logger.WithField("bundle", b).Debug("Received bundle")

			if listener.callback != nil {
				listener.callback(b)
			}
			if err := sendAck(conn, ackOk); err != nil {
				logger.WithError(err).Warn("Sending acknowledgement failed")
				return
			}

		case errors.Is(err, errDecode):
			logger.WithError(err).Warn("Received invalid bundle frame")

			if err := sendAck(conn, ackError); err != nil {
				logger.WithError(err).Warn("Sending acknowledgement failed")
				return
			}

		case errors.Is(err, io.EOF):
			logger.Debug("Connection was closed")
			return

		default:
			logger.WithError(err).Warn("Reading frame failed")
			return
		}
	}
}
