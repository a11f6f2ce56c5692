// SPDX-License-Identifier: GPL-3.0-or-later

package discovery

import (
	"fmt"
	"time"

	"github.com/schollz/peerdiscovery"
	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/cla"
	"github.com/spacearth/sdtn-go/pkg/cla/stcp"
)

const (
	// address4 is the multicast IPv4 address used for discovery.
	address4 = "224.23.23.23"

	// address6 is the multicast IPv6 address used for discovery.
	address6 = "ff02::23:23:23"

	// port is the multicast port used for discovery.
	port = 35039
)

// Manager publishes this node's Announcements and registers Peers for
// received ones.
type Manager struct {
	nodeID       bpv7.EndpointID
	registerFunc func(cla.Peer)

	stopChan4 chan struct{}
	stopChan6 chan struct{}
}

// NewManager creates and starts a Manager, announcing the given
// Announcements on the chosen IP versions. Discovered peers are handed to
// registerFunc; this node's own Announcements are skipped.
func NewManager(
	nodeID bpv7.EndpointID, registerFunc func(cla.Peer),
	announcements []Announcement, announcementInterval time.Duration,
	ipv4, ipv6 bool) (*Manager, error) {

	manager := &Manager{
		nodeID:       nodeID,
		registerFunc: registerFunc,
	}
	if ipv4 {
		manager.stopChan4 = make(chan struct{})
	}
	if ipv6 {
		manager.stopChan6 = make(chan struct{})
	}

	log.WithFields(log.Fields{
		"interval":      announcementInterval,
		"IPv4":          ipv4,
		"IPv6":          ipv6,
		"announcements": announcements,
	}).Info("Starting peer discovery")

	msg, err := MarshalAnnouncements(announcements)
	if err != nil {
		return nil, err
	}

	sets := []struct {
		active           bool
		multicastAddress string
		stopChan         chan struct{}
		ipVersion        peerdiscovery.IPVersion
		notify           func(discovered peerdiscovery.Discovered)
	}{
		{ipv4, address4, manager.stopChan4, peerdiscovery.IPv4, manager.notify},
		{ipv6, address6, manager.stopChan6, peerdiscovery.IPv6, manager.notify6},
	}

	for _, set := range sets {
		if !set.active {
			continue
		}

		settings := peerdiscovery.Settings{
			Limit:            -1,
			Port:             fmt.Sprintf("%d", port),
			MulticastAddress: set.multicastAddress,
			Payload:          msg,
			Delay:            announcementInterval,
			TimeLimit:        -1,
			StopChan:         set.stopChan,
			AllowSelf:        true,
			IPVersion:        set.ipVersion,
			Notify:           set.notify,
		}

		discoverErrChan := make(chan error)
		go func() {
			_, discoverErr := peerdiscovery.Discover(settings)
			discoverErrChan <- discoverErr
		}()

		select {
		case discoverErr := <-discoverErrChan:
			if discoverErr != nil {
				return nil, discoverErr
			}

		case <-time.After(time.Second):
			break
		}
	}

	return manager, nil
}

func (manager *Manager) notify6(discovered peerdiscovery.Discovered) {
	discovered.Address = fmt.Sprintf("[%s]", discovered.Address)

	manager.notify(discovered)
}

func (manager *Manager) notify(discovered peerdiscovery.Discovered) {
	announcements, err := UnmarshalAnnouncements(discovered.Payload)
	if err != nil {
		log.WithFields(log.Fields{
			"peer":  discovered.Address,
			"error": err,
		}).Warn("Parsing discovery payload failed")

		return
	}

	for _, announcement := range announcements {
		go manager.handleDiscovery(announcement, discovered.Address)
	}
}

func (manager *Manager) handleDiscovery(announcement Announcement, addr string) {
	if manager.nodeID == announcement.Endpoint {
		return
	}

	log.WithFields(log.Fields{
		"peer":    addr,
		"message": announcement,
	}).Debug("Peer discovery received an announcement")

	switch announcement.Type {
	case cla.TCP:
		connectionAddress := fmt.Sprintf("%s:%d", addr, announcement.Port)
		manager.registerFunc(stcp.NewPeer(announcement.Endpoint, connectionAddress))

	default:
		log.WithFields(log.Fields{
			"peer":    addr,
			"message": announcement,
		}).Debug("Ignoring announcement for unsupported CLA")
	}
}

// Close stops this Manager's announcement loops.
func (manager *Manager) Close() {
	for _, stopChan := range []chan struct{}{manager.stopChan4, manager.stopChan6} {
		if stopChan != nil {
			close(stopChan)
		}
	}
}
