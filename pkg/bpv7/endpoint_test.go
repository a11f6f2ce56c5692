// SPDX-License-Identifier: GPL-3.0-or-later

package bpv7

import (
	"bytes"
	"testing"

	"github.com/dtn7/cboring"
)

func TestEndpointIDScheme(t *testing.T) {
	tests := []struct {
		id        string
		dtnScheme bool
		null      bool
	}{
		{"dtn://node1", true, false},
		{"dtn://node1/agent", true, false},
		{"ipn:23.42", false, false},
		{"dtn:none", false, true},
		{"", false, true},
	}

	for _, test := range tests {
		eid := NewEndpointID(test.id)

		if eid.IsDtnScheme() != test.dtnScheme {
			t.Fatalf("%s: IsDtnScheme was %t", test.id, eid.IsDtnScheme())
		}
		if eid.IsNull() != test.null {
			t.Fatalf("%s: IsNull was %t", test.id, eid.IsNull())
		}
	}
}

func TestEndpointIDEquality(t *testing.T) {
	if NewEndpointID("dtn://node1") != NewEndpointID("dtn://node1") {
		t.Fatal("equal EndpointIDs differ")
	}
	if NewEndpointID("dtn://node1") == NewEndpointID("dtn://node2") {
		t.Fatal("different EndpointIDs are equal")
	}
	if !DtnNone().IsNull() {
		t.Fatal("dtn:none is not null")
	}
}

func TestEndpointIDCbor(t *testing.T) {
	eid := NewEndpointID("dtn://node1")

	var buff bytes.Buffer
	if err := cboring.Marshal(&eid, &buff); err != nil {
		t.Fatal(err)
	}

	var eid2 EndpointID
	if err := cboring.Unmarshal(&eid2, &buff); err != nil {
		t.Fatal(err)
	}

	if eid != eid2 {
		t.Fatalf("EndpointID changed: %v, %v", eid, eid2)
	}
}
