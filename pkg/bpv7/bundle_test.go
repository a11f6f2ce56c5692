// SPDX-License-Identifier: GPL-3.0-or-later

package bpv7

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/dtn7/cboring"
)

func TestBundleNew(t *testing.T) {
	b := NewBundle(
		NewEndpointID("dtn://src"), NewEndpointID("dtn://dest"), []byte("hello"))

	if b.PrimaryBlock.Version != DtnVersion {
		t.Fatalf("version is %d", b.PrimaryBlock.Version)
	}
	if b.PrimaryBlock.Lifetime != DefaultLifetime {
		t.Fatalf("lifetime is %d", b.PrimaryBlock.Lifetime)
	}
	if !b.PrimaryBlock.ReportTo.IsNull() {
		t.Fatalf("report-to is %v", b.PrimaryBlock.ReportTo)
	}
}

func TestBundleIsExpired(t *testing.T) {
	b := NewBundle(
		NewEndpointID("dtn://src"), NewEndpointID("dtn://dest"), []byte("hello"))

	if b.IsExpired() {
		t.Fatal("fresh Bundle is expired")
	}

	b.PrimaryBlock.CreationTimestamp = uint64(time.Now().Unix()) - 7200
	b.PrimaryBlock.Lifetime = 3600

	if !b.IsExpired() {
		t.Fatal("outdated Bundle is not expired")
	}
}

func TestBundleCbor(t *testing.T) {
	b := Bundle{
		PrimaryBlock: PrimaryBlock{
			Version:           DtnVersion,
			Destination:       NewEndpointID("dtn://dest"),
			SourceNode:        NewEndpointID("dtn://src"),
			ReportTo:          DtnNone(),
			CreationTimestamp: 1000,
			Lifetime:          3600,
		},
		Payload: []byte("hello world"),
	}

	var buff bytes.Buffer
	if err := cboring.Marshal(&b, &buff); err != nil {
		t.Fatal(err)
	}

	var b2 Bundle
	if err := cboring.Unmarshal(&b2, &buff); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(b, b2) {
		t.Fatalf("Bundle changed after codec round trip: %v, %v", b, b2)
	}
}

func TestBundleCborGarbage(t *testing.T) {
	var b Bundle
	if err := cboring.Unmarshal(&b, bytes.NewBuffer([]byte{0xFF, 0x00, 0x23, 0x42})); err == nil {
		t.Fatal("unmarshalling garbage succeeded")
	}
}
