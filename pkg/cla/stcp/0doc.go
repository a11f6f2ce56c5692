// SPDX-License-Identifier: GPL-3.0-or-later

// Package stcp provides a simple stream convergence layer over TCP. Each
// Bundle travels as one frame, a four byte big endian length followed by the
// Bundle's CBOR representation, and is acknowledged with a short status
// string, "OK" or "ERROR".
//
// The transport is unidirectional per connection. A Listener accepts frames
// and hands decoded Bundles to a callback; a Client drains a local store
// towards one remote. The Peer type combines addressing, reachability
// probing and single Bundle transmission for the peer registry.
package stcp
