// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"github.com/spacearth/sdtn-go/pkg/bpv7"
	"github.com/spacearth/sdtn-go/pkg/node"
)

func testRestAgent(t *testing.T) (*RestAgent, *httptest.Server) {
	dir := t.TempDir()

	n, err := node.New(node.Config{
		NodeID:        bpv7.NewEndpointID("dtn://node1"),
		StoreDir:      filepath.Join(dir, "store"),
		DispatchedDir: filepath.Join(dir, "dispatched"),
	})
	if err != nil {
		t.Fatal(err)
	}

	ra := NewRestAgent(mux.NewRouter(), n)
	server := httptest.NewServer(ra)
	t.Cleanup(server.Close)

	return ra, server
}

func postJson(t *testing.T, url string, request interface{}, response interface{}) {
	body, err := json.Marshal(request)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		t.Fatal(err)
	}
}

func getJson(t *testing.T, url string, response interface{}) *http.Response {
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestRestAgentInsertAndFetch(t *testing.T) {
	_, server := testRestAgent(t)

	var insertResponse RestInsertResponse
	postJson(t, server.URL+"/insert", RestInsertRequest{
		Destination: "dtn://dst",
		Payload:     []byte("hello"),
	}, &insertResponse)

	if insertResponse.Error != "" {
		t.Fatal(insertResponse.Error)
	}

	var bundlesResponse RestBundlesResponse
	getJson(t, server.URL+"/bundles", &bundlesResponse)

	if len(bundlesResponse.Bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundlesResponse.Bundles))
	}

	var bundleResponse RestBundleResponse
	getJson(t, server.URL+"/bundle/"+bundlesResponse.Bundles[0], &bundleResponse)

	if bundleResponse.Error != "" {
		t.Fatal(bundleResponse.Error)
	}
	if string(bundleResponse.Bundle.Payload) != "hello" {
		t.Fatalf("unexpected payload: %q", bundleResponse.Bundle.Payload)
	}
}

func TestRestAgentInsertMissingDestination(t *testing.T) {
	_, server := testRestAgent(t)

	var insertResponse RestInsertResponse
	postJson(t, server.URL+"/insert", RestInsertRequest{
		Payload: []byte("hello"),
	}, &insertResponse)

	if insertResponse.Error == "" {
		t.Fatal("insert without destination succeeded")
	}
}

func TestRestAgentBundleNotFound(t *testing.T) {
	_, server := testRestAgent(t)

	var bundleResponse RestBundleResponse
	resp := getJson(t, server.URL+"/bundle/ffffffff", &bundleResponse)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if bundleResponse.Error == "" {
		t.Fatal("response carries no error")
	}
}

func TestRestAgentStatus(t *testing.T) {
	_, server := testRestAgent(t)

	var statusResponse RestStatusResponse
	getJson(t, server.URL+"/status", &statusResponse)

	if statusResponse.Error != "" {
		t.Fatal(statusResponse.Error)
	}
	if statusResponse.Status.NodeID != "dtn://node1" {
		t.Fatalf("unexpected node id: %s", statusResponse.Status.NodeID)
	}
}

func TestRestAgentRoutes(t *testing.T) {
	_, server := testRestAgent(t)

	var routeResponse RestErrorResponse
	postJson(t, server.URL+"/routes", RestRouteRequest{
		Destination: "dtn://dst",
		NextHop:     "dtn://hop",
		CLAType:     "tcp",
		Cost:        5,
	}, &routeResponse)

	if routeResponse.Error != "" {
		t.Fatal(routeResponse.Error)
	}

	var routesResponse RestRoutesResponse
	getJson(t, server.URL+"/routes", &routesResponse)

	if len(routesResponse.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routesResponse.Routes))
	}
	if routesResponse.Routes[0].Cost != 5 {
		t.Fatalf("unexpected cost: %d", routesResponse.Routes[0].Cost)
	}
}

func TestRestAgentAddRouteMissingNextHop(t *testing.T) {
	_, server := testRestAgent(t)

	var routeResponse RestErrorResponse
	postJson(t, server.URL+"/routes", RestRouteRequest{
		Destination: "dtn://dst",
	}, &routeResponse)

	if routeResponse.Error == "" {
		t.Fatal("route without next hop was accepted")
	}
}

func TestRestAgentPeersAndForward(t *testing.T) {
	ra, server := testRestAgent(t)

	var peerResponse RestErrorResponse
	postJson(t, server.URL+"/peers", RestPeerRequest{
		EndpointId: "dtn://peer",
		Address:    "localhost:1",
	}, &peerResponse)

	if peerResponse.Error != "" {
		t.Fatal(peerResponse.Error)
	}
	if len(ra.node.Peers()) != 1 {
		t.Fatalf("expected 1 peer, got %d", len(ra.node.Peers()))
	}

	// No pending bundles, so a forwarding round is a no-op.
	var forwardResponse RestErrorResponse
	postJson(t, server.URL+"/forward", struct{}{}, &forwardResponse)

	if forwardResponse.Error != "" {
		t.Fatal(forwardResponse.Error)
	}
}

func TestRestAgentCleanup(t *testing.T) {
	_, server := testRestAgent(t)

	var cleanupResponse RestErrorResponse
	postJson(t, server.URL+"/cleanup", struct{}{}, &cleanupResponse)

	if cleanupResponse.Error != "" {
		t.Fatal(cleanupResponse.Error)
	}
}
