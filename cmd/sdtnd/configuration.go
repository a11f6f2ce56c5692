// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/agent"
	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/cla"
	"github.com/spacearth/sdtn-go/pkg/cla/stcp"
	"github.com/spacearth/sdtn-go/pkg/discovery"
	"github.com/spacearth/sdtn-go/pkg/node"
	"github.com/spacearth/sdtn-go/pkg/routing"
)

// tomlConfig describes the TOML-configuration.
type tomlConfig struct {
	Core      coreConf
	Logging   logConf
	Routing   routingConf
	Discovery discoveryConf
	Agent     agentConf
	Listen    []convergenceConf
	Peer      []peerConf
	Route     []routeConf
}

// coreConf describes the Core-configuration block.
type coreConf struct {
	Store      string
	Dispatched string
	NodeId     string `toml:"node-id"`
}

// logConf describes the Logging-configuration block.
type logConf struct {
	Level        string
	ReportCaller bool `toml:"report-caller"`
	Format       string
}

// routingConf describes the Routing-configuration block.
type routingConf struct {
	Algorithm       string
	MaxAttempts     uint `toml:"max-attempts"`
	CleanupInterval uint `toml:"cleanup-interval"`
	ForwardInterval uint `toml:"forward-interval"`
}

// discoveryConf describes the Discovery-configuration block.
type discoveryConf struct {
	IPv4     bool
	IPv6     bool
	Interval uint
}

// agentConf describes the REST agent configuration block.
type agentConf struct {
	Listen string
}

// convergenceConf describes a "listen" block.
type convergenceConf struct {
	Protocol string
	Endpoint string
}

// peerConf describes a static "peer" block.
type peerConf struct {
	Node     string
	Protocol string
	Endpoint string
}

// routeConf describes a static "route" block.
type routeConf struct {
	Destination string
	NextHop     string `toml:"next-hop"`
	CLAType     string `toml:"cla-type"`
	Cost        uint
}

func parseListenPort(endpoint string) (port int, err error) {
	var portStr string
	if _, portStr, err = net.SplitHostPort(endpoint); err != nil {
		return
	}
	port, err = strconv.Atoi(portStr)
	return
}

// setupLogging configures logrus from the Logging block.
func setupLogging(conf logConf) {
	if conf.Level != "" {
		if lvl, err := log.ParseLevel(conf.Level); err != nil {
			log.WithFields(log.Fields{
				"level":    conf.Level,
				"error":    err,
				"provided": "panic,fatal,error,warn,info,debug,trace",
			}).Warn("Failed to set log level. Please select one of the provided ones")
		} else {
			log.SetLevel(lvl)
		}
	}

	log.SetReportCaller(conf.ReportCaller)

	switch conf.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})

	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})

	default:
		log.Warn("Unknown logging format")
	}
}

// daemon holds everything parseConfig started, for an orderly shutdown.
type daemon struct {
	node      *node.Node
	cron      *node.Cron
	listeners []*stcp.Listener
	discovery *discovery.Manager
	agent     *http.Server
}

// Close shuts the daemon's components down.
func (d *daemon) Close() {
	if d.agent != nil {
		_ = d.agent.Close()
	}
	if d.discovery != nil {
		d.discovery.Close()
	}
	for _, listener := range d.listeners {
		listener.Close()
	}
	if d.cron != nil {
		d.cron.Stop()
	}
}

// parseConfig creates a running daemon based on the given TOML configuration
// file.
func parseConfig(filename string) (d *daemon, err error) {
	var conf tomlConfig
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		return
	}

	setupLogging(conf.Logging)

	if conf.Core.Store == "" {
		err = fmt.Errorf("core.store is empty")
		return
	}
	if conf.Core.Dispatched == "" {
		conf.Core.Dispatched = conf.Core.Store + "_dispatched"
	}

	nodeID := bpv7.NewEndpointID(conf.Core.NodeId)
	if nodeID.IsNull() {
		err = fmt.Errorf("core.node-id is empty")
		return
	}

	n, err := node.New(node.Config{
		NodeID:                nodeID,
		StoreDir:              conf.Core.Store,
		DispatchedDir:         conf.Core.Dispatched,
		RoutingAlgorithm:      conf.Routing.Algorithm,
		MaxForwardingAttempts: conf.Routing.MaxAttempts,
	})
	if err != nil {
		return
	}

	d = &daemon{node: n}

	// Listen
	var announcements []discovery.Announcement
	for _, conv := range conf.Listen {
		switch conv.Protocol {
		case "", "stcp":
			port, portErr := parseListenPort(conv.Endpoint)
			if portErr != nil {
				err = portErr
				return
			}

			announcements = append(announcements, discovery.Announcement{
				Type:     cla.TCP,
				Endpoint: nodeID,
				Port:     uint(port),
			})
			d.listeners = append(d.listeners, n.StartListener(conv.Endpoint))

		default:
			err = fmt.Errorf("unknown listen.protocol %q", conv.Protocol)
			return
		}
	}

	// Static peers
	for _, peer := range conf.Peer {
		peerID := bpv7.NewEndpointID(peer.Node)
		if peerID.IsNull() {
			log.WithField("peer", peer.Endpoint).Warn("Skipping peer without node id")
			continue
		}

		switch peer.Protocol {
		case "", "stcp":
			n.RegisterPeer(stcp.NewPeer(peerID, peer.Endpoint))

		default:
			log.WithFields(log.Fields{
				"peer":     peer.Endpoint,
				"protocol": peer.Protocol,
			}).Warn("Skipping peer with unknown protocol")
		}
	}

	// Static routes
	for _, route := range conf.Route {
		n.AddRoute(routing.RouteEntry{
			Destination: bpv7.NewEndpointID(route.Destination),
			NextHop:     bpv7.NewEndpointID(route.NextHop),
			CLAType:     route.CLAType,
			Cost:        route.Cost,
			IsActive:    true,
		})
	}

	// Discovery
	if conf.Discovery.IPv4 || conf.Discovery.IPv6 {
		if conf.Discovery.Interval == 0 {
			conf.Discovery.Interval = 10
		}

		d.discovery, err = discovery.NewManager(
			nodeID, n.RegisterPeer, announcements,
			time.Duration(conf.Discovery.Interval)*time.Second,
			conf.Discovery.IPv4, conf.Discovery.IPv6)
		if err != nil {
			return
		}
	}

	// REST agent
	if conf.Agent.Listen != "" {
		ra := agent.NewRestAgent(mux.NewRouter(), n)
		d.agent = &http.Server{
			Addr:    conf.Agent.Listen,
			Handler: ra,
		}

		go func(server *http.Server) {
			if serveErr := server.ListenAndServe(); serveErr != http.ErrServerClosed {
				log.WithError(serveErr).Error("REST agent failed")
			}
		}(d.agent)
	}

	// Maintenance
	cleanupInterval := conf.Routing.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 60
	}

	d.cron = node.NewCron()
	err = d.cron.RegisterMaintenance(n,
		time.Duration(cleanupInterval)*time.Second,
		time.Duration(conf.Routing.ForwardInterval)*time.Second)

	return
}
