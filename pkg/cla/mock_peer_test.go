// SPDX-License-Identifier: GPL-3.0-or-later

package cla

import (
	"fmt"
	"sync"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
)

// mockPeer mocks a Peer where all fields are directly editable.
type mockPeer struct {
	endpointID bpv7.EndpointID
	address    string
	reachable  bool
	activable  bool

	mutex     sync.Mutex
	activated int
	sent      []bpv7.Bundle
}

func newMockPeer(eid string, reachable bool) *mockPeer {
	return &mockPeer{
		endpointID: bpv7.NewEndpointID(eid),
		address:    fmt.Sprintf("mock://%s", eid),
		reachable:  reachable,
		activable:  true,
	}
}

func (m *mockPeer) Address() string { return m.address }

func (m *mockPeer) Activate() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.activated++
	if !m.activable {
		return fmt.Errorf("activable := false")
	}
	return nil
}

func (m *mockPeer) EndpointID() bpv7.EndpointID { return m.endpointID }

func (m *mockPeer) IsReachable() bool { return m.reachable }

func (m *mockPeer) Type() Type { return TCP }

func (m *mockPeer) ConnectionAddress() string { return m.address }

func (m *mockPeer) Send(b bpv7.Bundle) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.sent = append(m.sent, b)
	return nil
}
