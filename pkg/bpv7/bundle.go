// SPDX-License-Identifier: GPL-3.0-or-later

package bpv7

import (
	"fmt"
	"io"
	"time"

	"github.com/dtn7/cboring"
)

const (
	// DtnVersion is the fixed Bundle Protocol version.
	DtnVersion uint64 = 7

	// DefaultLifetime is a Bundle's lifetime in seconds, if none is configured.
	DefaultLifetime uint64 = 3600
)

// PrimaryBlock carries the fields of a Bundle's primary block which are
// relevant for routing and lifetime handling.
type PrimaryBlock struct {
	Version           uint64     `json:"version"`
	Destination       EndpointID `json:"destination"`
	SourceNode        EndpointID `json:"source"`
	ReportTo          EndpointID `json:"report_to"`
	CreationTimestamp uint64     `json:"creation_timestamp"`
	Lifetime          uint64     `json:"lifetime"`
}

// MarshalCbor writes this PrimaryBlock's CBOR representation, a six element
// array of its fields.
func (pb *PrimaryBlock) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(6, w); err != nil {
		return err
	}

	if err := cboring.WriteUInt(pb.Version, w); err != nil {
		return err
	}

	for _, eid := range []*EndpointID{&pb.Destination, &pb.SourceNode, &pb.ReportTo} {
		if err := cboring.Marshal(eid, w); err != nil {
			return fmt.Errorf("marshalling EndpointID failed: %v", err)
		}
	}

	for _, n := range []uint64{pb.CreationTimestamp, pb.Lifetime} {
		if err := cboring.WriteUInt(n, w); err != nil {
			return err
		}
	}

	return nil
}

// UnmarshalCbor reads a PrimaryBlock from its CBOR representation.
func (pb *PrimaryBlock) UnmarshalCbor(r io.Reader) error {
	if l, err := cboring.ReadArrayLength(r); err != nil {
		return err
	} else if l != 6 {
		return fmt.Errorf("primary block: wrong array length: %d instead of 6", l)
	}

	if version, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		pb.Version = version
	}

	for _, eid := range []*EndpointID{&pb.Destination, &pb.SourceNode, &pb.ReportTo} {
		if err := cboring.Unmarshal(eid, r); err != nil {
			return fmt.Errorf("unmarshalling EndpointID failed: %v", err)
		}
	}

	if ts, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		pb.CreationTimestamp = ts
	}

	if lt, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		pb.Lifetime = lt
	}

	return nil
}

// Bundle is the store-and-forward message unit: a PrimaryBlock next to an
// opaque payload. Bundles are value types without shared mutable state and
// can be copied freely.
type Bundle struct {
	PrimaryBlock PrimaryBlock `json:"primary"`
	Payload      []byte       `json:"payload"`
}

// NewBundle creates a Bundle from the given source and destination with the
// current time as creation timestamp and default version and lifetime.
func NewBundle(source, destination EndpointID, payload []byte) Bundle {
	return Bundle{
		PrimaryBlock: PrimaryBlock{
			Version:           DtnVersion,
			Destination:       destination,
			SourceNode:        source,
			ReportTo:          DtnNone(),
			CreationTimestamp: uint64(time.Now().Unix()),
			Lifetime:          DefaultLifetime,
		},
		Payload: payload,
	}
}

// IsExpired checks if this Bundle's lifetime has passed. This is a pure
// function of the current wall clock; no state is cached.
func (b Bundle) IsExpired() bool {
	return uint64(time.Now().Unix()) > b.PrimaryBlock.CreationTimestamp+b.PrimaryBlock.Lifetime
}

// MarshalCbor writes this Bundle's CBOR representation, an array of the
// primary block and the payload byte string.
func (b *Bundle) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}

	if err := cboring.Marshal(&b.PrimaryBlock, w); err != nil {
		return fmt.Errorf("marshalling primary block failed: %v", err)
	}

	return cboring.WriteByteString(b.Payload, w)
}

// UnmarshalCbor reads a Bundle from its CBOR representation.
func (b *Bundle) UnmarshalCbor(r io.Reader) error {
	if l, err := cboring.ReadArrayLength(r); err != nil {
		return err
	} else if l != 2 {
		return fmt.Errorf("bundle: wrong array length: %d instead of 2", l)
	}

	if err := cboring.Unmarshal(&b.PrimaryBlock, r); err != nil {
		return fmt.Errorf("unmarshalling primary block failed: %v", err)
	}

	if payload, err := cboring.ReadByteString(r); err != nil {
		return err
	} else {
		b.Payload = payload
	}

	return nil
}

func (b Bundle) String() string {
	return fmt.Sprintf("Bundle(%v,%v,%d)",
		b.PrimaryBlock.SourceNode, b.PrimaryBlock.Destination, b.PrimaryBlock.CreationTimestamp)
}
