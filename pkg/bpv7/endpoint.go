// SPDX-License-Identifier: GPL-3.0-or-later

package bpv7

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/dtn7/cboring"
)

// dtnSchemePrefix starts each EID of the "dtn" URI scheme.
const dtnSchemePrefix = "dtn://"

// noneEndpoint is the reserved null endpoint, e.g., for unset report-to fields.
const noneEndpoint = "dtn:none"

// EndpointID represents an Endpoint Identifier (EID), the opaque string
// address of a DTN node or service, e.g., "dtn://node1". Two EndpointIDs are
// equal iff their string representations are equal.
type EndpointID struct {
	id string
}

// NewEndpointID creates an EndpointID from its string representation.
func NewEndpointID(id string) EndpointID {
	return EndpointID{id: id}
}

// DtnNone returns the reserved null endpoint, "dtn:none".
func DtnNone() EndpointID {
	return EndpointID{id: noneEndpoint}
}

// IsDtnScheme checks if this EndpointID is part of the "dtn" URI scheme.
func (eid EndpointID) IsDtnScheme() bool {
	return strings.HasPrefix(eid.id, dtnSchemePrefix)
}

// IsNull checks if this EndpointID is the null endpoint or unset.
func (eid EndpointID) IsNull() bool {
	return eid.id == noneEndpoint || eid.id == ""
}

// String returns this EndpointID's string representation.
func (eid EndpointID) String() string {
	return eid.id
}

// MarshalCbor writes this EndpointID's CBOR representation.
func (eid *EndpointID) MarshalCbor(w io.Writer) error {
	return cboring.WriteTextString(eid.id, w)
}

// UnmarshalCbor reads an EndpointID from its CBOR representation.
func (eid *EndpointID) UnmarshalCbor(r io.Reader) error {
	id, err := cboring.ReadTextString(r)
	if err != nil {
		return err
	}

	eid.id = id
	return nil
}

// MarshalJSON writes a JSON string of this EndpointID.
func (eid EndpointID) MarshalJSON() ([]byte, error) {
	return json.Marshal(eid.id)
}

// UnmarshalJSON reads an EndpointID from a JSON string.
func (eid *EndpointID) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &eid.id)
}
