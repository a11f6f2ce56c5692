// SPDX-License-Identifier: GPL-3.0-or-later

// Package bpv7 provides a reduced model of the Bundle Protocol Version 7,
// limited to the primary block fields required for routing and lifetime
// handling, together with a compact CBOR representation.
//
// Full BPv7 wire-format compliance is out of scope; neither CRCs, extension
// blocks, fragmentation nor security blocks are modelled.
package bpv7
