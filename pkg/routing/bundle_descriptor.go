// SPDX-License-Identifier: GPL-3.0-or-later

package routing

import (
	"fmt"
	"time"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

// BundleDescriptor wraps a Bundle with its transient forwarding bookkeeping:
// the set of peers this Bundle was already sent to and the amount of
// forwarding attempts. A BundleDescriptor is created when a Bundle reaches
// the routing layer and discarded when its bookkeeping is no longer needed;
// only the underlying Bundle is durable.
type BundleDescriptor struct {
	Bundle bpv7.Bundle

	// CreatedAt is the local time of this descriptor's construction, not
	// the Bundle's own creation timestamp.
	CreatedAt time.Time

	alreadySent        map[bpv7.EndpointID]struct{}
	forwardingAttempts uint
}

// NewBundleDescriptor wraps a Bundle with fresh forwarding state.
func NewBundleDescriptor(b bpv7.Bundle) *BundleDescriptor {
	return &BundleDescriptor{
		Bundle:      b,
		CreatedAt:   time.Now(),
		alreadySent: make(map[bpv7.EndpointID]struct{}),
	}
}

// MarkSent records a transmission to the given peer. Repeated calls for the
// same peer are no-ops; the already-sent set only grows.
func (descriptor *BundleDescriptor) MarkSent(eid bpv7.EndpointID) {
	descriptor.alreadySent[eid] = struct{}{}
}

// HasBeenSentTo checks if this Bundle was already sent to the given peer.
func (descriptor *BundleDescriptor) HasBeenSentTo(eid bpv7.EndpointID) bool {
	_, ok := descriptor.alreadySent[eid]
	return ok
}

// IncrementForwardingAttempts counts another forwarding attempt.
func (descriptor *BundleDescriptor) IncrementForwardingAttempts() {
	descriptor.forwardingAttempts++
}

// ForwardingAttempts returns the amount of forwarding attempts so far.
func (descriptor *BundleDescriptor) ForwardingAttempts() uint {
	return descriptor.forwardingAttempts
}

// IsReadyForForwarding checks if the Bundle is not expired and the attempt
// limit is not yet reached.
func (descriptor *BundleDescriptor) IsReadyForForwarding(maxAttempts uint) bool {
	return !descriptor.Bundle.IsExpired() && descriptor.forwardingAttempts < maxAttempts
}

// ID returns a logical identity string for diagnostics and deduplication
// within the routing layer. It is distinct from the storage digest.
func (descriptor *BundleDescriptor) ID() string {
	return fmt.Sprintf("%v-%d",
		descriptor.Bundle.PrimaryBlock.SourceNode, descriptor.Bundle.PrimaryBlock.CreationTimestamp)
}

func (descriptor *BundleDescriptor) String() string {
	return fmt.Sprintf("BundleDescriptor(%s,%d attempts)",
		descriptor.ID(), descriptor.forwardingAttempts)
}
