// SPDX-License-Identifier: GPL-3.0-or-later

package routing

import (
	"testing"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

func TestBundleDescriptorSentBookkeeping(t *testing.T) {
	descriptor := NewBundleDescriptor(bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dst"), []byte("hello")))

	p1 := bpv7.NewEndpointID("dtn://p1")
	p2 := bpv7.NewEndpointID("dtn://p2")

	if descriptor.HasBeenSentTo(p1) {
		t.Fatal("fresh descriptor claims a transmission to p1")
	}

	descriptor.MarkSent(p1)
	descriptor.MarkSent(p1)

	if !descriptor.HasBeenSentTo(p1) {
		t.Fatal("transmission to p1 was not recorded")
	}
	if descriptor.HasBeenSentTo(p2) {
		t.Fatal("descriptor claims a transmission to p2")
	}
}

func TestBundleDescriptorForwardingAttempts(t *testing.T) {
	descriptor := NewBundleDescriptor(bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dst"), []byte("hello")))

	const maxAttempts = 3

	for i := 0; i < maxAttempts; i++ {
		if !descriptor.IsReadyForForwarding(maxAttempts) {
			t.Fatalf("descriptor not ready after %d attempts", i)
		}
		descriptor.IncrementForwardingAttempts()
	}

	if descriptor.ForwardingAttempts() != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, descriptor.ForwardingAttempts())
	}
	if descriptor.IsReadyForForwarding(maxAttempts) {
		t.Fatal("descriptor still ready after reaching the attempt limit")
	}
}

func TestBundleDescriptorExpiredNotReady(t *testing.T) {
	b := bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dst"), []byte("hello"))
	b.PrimaryBlock.CreationTimestamp = 1000
	b.PrimaryBlock.Lifetime = 1

	descriptor := NewBundleDescriptor(b)
	if descriptor.IsReadyForForwarding(10) {
		t.Fatal("expired bundle reported as ready for forwarding")
	}
}

func TestBundleDescriptorID(t *testing.T) {
	b := bpv7.NewBundle(
		bpv7.NewEndpointID("dtn://src"), bpv7.NewEndpointID("dtn://dst"), []byte("hello"))
	b.PrimaryBlock.CreationTimestamp = 1234

	if id := NewBundleDescriptor(b).ID(); id != "dtn://src-1234" {
		t.Fatalf("unexpected descriptor id: %s", id)
	}
}
