// SPDX-License-Identifier: GPL-3.0-or-later

// Package node wires the store, the routing layer and the convergence
// layers into one DTN node. A Node owns the bundle lifecycle: local
// insertion, inbound reception, forwarding, dispatching and expiry cleanup.
package node
