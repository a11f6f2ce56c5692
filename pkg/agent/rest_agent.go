// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/cla/stcp"
	"github.com/spacearth/sdtn-go/pkg/node"
	"github.com/spacearth/sdtn-go/pkg/routing"
	"github.com/spacearth/sdtn-go/pkg/storage"
)

// RestAgent is a RESTful interface to one Node: bundle insertion and
// inspection, routing table management, peer registration and a forwarding
// trigger.
type RestAgent struct {
	router *mux.Router
	node   *node.Node
}

// NewRestAgent creates a RestAgent for the given Node.
func NewRestAgent(router *mux.Router, n *node.Node) (ra *RestAgent) {
	ra = &RestAgent{
		router: router,
		node:   n,
	}

	ra.router.HandleFunc("/insert", ra.handleInsert).Methods(http.MethodPost)
	ra.router.HandleFunc("/bundles", ra.handleBundles).Methods(http.MethodGet)
	ra.router.HandleFunc("/bundle/{id}", ra.handleBundle).Methods(http.MethodGet)
	ra.router.HandleFunc("/status", ra.handleStatus).Methods(http.MethodGet)
	ra.router.HandleFunc("/routes", ra.handleRoutes).Methods(http.MethodGet)
	ra.router.HandleFunc("/routes", ra.handleAddRoute).Methods(http.MethodPost)
	ra.router.HandleFunc("/peers", ra.handleAddPeer).Methods(http.MethodPost)
	ra.router.HandleFunc("/forward", ra.handleForward).Methods(http.MethodPost)
	ra.router.HandleFunc("/cleanup", ra.handleCleanup).Methods(http.MethodPost)

	return ra
}

// ServeHTTP is a http.Handler to be bound to a HTTP endpoint, e.g., /rest.
func (ra *RestAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ra.router.ServeHTTP(w, r)
}

func (_ *RestAgent) writeJson(w http.ResponseWriter, response interface{}) {
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Warn("Failed to write REST response")
	}
}

// handleInsert processes /insert POST requests.
func (ra *RestAgent) handleInsert(w http.ResponseWriter, r *http.Request) {
	var (
		insertRequest  RestInsertRequest
		insertResponse RestInsertResponse
	)

	if jsonErr := json.NewDecoder(r.Body).Decode(&insertRequest); jsonErr != nil {
		insertResponse.Error = jsonErr.Error()
	} else if destination := bpv7.NewEndpointID(insertRequest.Destination); destination.IsNull() {
		insertResponse.Error = "destination is missing"
	} else if b, err := ra.node.InsertPayload(destination, insertRequest.Payload); err != nil {
		insertResponse.Error = err.Error()
	} else {
		insertResponse.Bundle = b.String()
	}

	ra.writeJson(w, insertResponse)
}

// handleBundles processes /bundles GET requests.
func (ra *RestAgent) handleBundles(w http.ResponseWriter, _ *http.Request) {
	var bundlesResponse RestBundlesResponse

	if ids, err := ra.node.ListBundles(); err != nil {
		bundlesResponse.Error = err.Error()
	} else {
		bundlesResponse.Bundles = ids
	}

	ra.writeJson(w, bundlesResponse)
}

// handleBundle processes /bundle/{id} GET requests, accepting full and
// partial bundle IDs.
func (ra *RestAgent) handleBundle(w http.ResponseWriter, r *http.Request) {
	var bundleResponse RestBundleResponse

	b, err := ra.node.ShowBundle(mux.Vars(r)["id"])
	switch {
	case err == nil:
		bundleResponse.Bundle = &b

	case errors.Is(err, storage.ErrBundleNotFound):
		bundleResponse.Error = err.Error()
		w.WriteHeader(http.StatusNotFound)

	default:
		bundleResponse.Error = err.Error()
		w.WriteHeader(http.StatusInternalServerError)
	}

	ra.writeJson(w, bundleResponse)
}

// handleStatus processes /status GET requests.
func (ra *RestAgent) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var statusResponse RestStatusResponse

	if status, err := ra.node.Status(); err != nil {
		statusResponse.Error = err.Error()
	} else {
		statusResponse.Status = &status
	}

	ra.writeJson(w, statusResponse)
}

// handleRoutes processes /routes GET requests.
func (ra *RestAgent) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	ra.writeJson(w, RestRoutesResponse{Routes: ra.node.AllRoutes()})
}

// handleAddRoute processes /routes POST requests.
func (ra *RestAgent) handleAddRoute(w http.ResponseWriter, r *http.Request) {
	var (
		routeRequest  RestRouteRequest
		routeResponse RestErrorResponse
	)

	if jsonErr := json.NewDecoder(r.Body).Decode(&routeRequest); jsonErr != nil {
		routeResponse.Error = jsonErr.Error()
	} else if bpv7.NewEndpointID(routeRequest.Destination).IsNull() {
		routeResponse.Error = "destination is missing"
	} else if bpv7.NewEndpointID(routeRequest.NextHop).IsNull() {
		routeResponse.Error = "next hop is missing"
	} else {
		ra.node.AddRoute(routing.RouteEntry{
			Destination: bpv7.NewEndpointID(routeRequest.Destination),
			NextHop:     bpv7.NewEndpointID(routeRequest.NextHop),
			CLAType:     routeRequest.CLAType,
			Cost:        routeRequest.Cost,
			IsActive:    true,
		})
	}

	ra.writeJson(w, routeResponse)
}

// handleAddPeer processes /peers POST requests, registering a stream
// transport Peer.
func (ra *RestAgent) handleAddPeer(w http.ResponseWriter, r *http.Request) {
	var (
		peerRequest  RestPeerRequest
		peerResponse RestErrorResponse
	)

	if jsonErr := json.NewDecoder(r.Body).Decode(&peerRequest); jsonErr != nil {
		peerResponse.Error = jsonErr.Error()
	} else if bpv7.NewEndpointID(peerRequest.EndpointId).IsNull() {
		peerResponse.Error = "endpoint id is missing"
	} else if peerRequest.Address == "" {
		peerResponse.Error = "address is missing"
	} else {
		ra.node.RegisterPeer(stcp.NewPeer(
			bpv7.NewEndpointID(peerRequest.EndpointId), peerRequest.Address))
	}

	ra.writeJson(w, peerResponse)
}

// handleForward processes /forward POST requests, triggering one forwarding
// round over all pending bundles.
func (ra *RestAgent) handleForward(w http.ResponseWriter, _ *http.Request) {
	var forwardResponse RestErrorResponse

	if err := ra.node.ForwardStored(); err != nil {
		forwardResponse.Error = err.Error()
	}

	ra.writeJson(w, forwardResponse)
}

// handleCleanup processes /cleanup POST requests, removing expired bundles.
func (ra *RestAgent) handleCleanup(w http.ResponseWriter, _ *http.Request) {
	var cleanupResponse RestErrorResponse

	if err := ra.node.CleanupExpired(); err != nil {
		cleanupResponse.Error = err.Error()
	}

	ra.writeJson(w, cleanupResponse)
}
