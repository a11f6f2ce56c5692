// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/node"
	"github.com/spacearth/sdtn-go/pkg/routing"
)

// RestInsertRequest describes a JSON to be POSTed to /insert. The payload is
// base64 encoded, as Go's JSON encoding does for byte arrays.
type RestInsertRequest struct {
	Destination string `json:"destination"`
	Payload     []byte `json:"payload"`
}

// RestInsertResponse describes a JSON response for /insert.
type RestInsertResponse struct {
	Error  string `json:"error,omitempty"`
	Bundle string `json:"bundle,omitempty"`
}

// RestBundlesResponse describes a JSON response for /bundles.
type RestBundlesResponse struct {
	Error   string   `json:"error,omitempty"`
	Bundles []string `json:"bundles"`
}

// RestBundleResponse describes a JSON response for /bundle/{id}.
type RestBundleResponse struct {
	Error  string       `json:"error,omitempty"`
	Bundle *bpv7.Bundle `json:"bundle,omitempty"`
}

// RestStatusResponse describes a JSON response for /status.
type RestStatusResponse struct {
	Error  string       `json:"error,omitempty"`
	Status *node.Status `json:"status,omitempty"`
}

// RestRouteRequest describes a JSON to be POSTed to /routes.
type RestRouteRequest struct {
	Destination string `json:"destination"`
	NextHop     string `json:"next_hop"`
	CLAType     string `json:"cla_type"`
	Cost        uint   `json:"cost"`
}

// RestRoutesResponse describes a JSON response for /routes.
type RestRoutesResponse struct {
	Error  string               `json:"error,omitempty"`
	Routes []routing.RouteEntry `json:"routes"`
}

// RestPeerRequest describes a JSON to be POSTed to /peers.
type RestPeerRequest struct {
	EndpointId string `json:"endpoint_id"`
	Address    string `json:"address"`
}

// RestErrorResponse describes a generic JSON response carrying an optional
// error, e.g., for /peers and /forward.
type RestErrorResponse struct {
	Error string `json:"error,omitempty"`
}
