package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// testClient points the client at an httptest server over plain http.
func testClient(srv *httptest.Server) *Client {
	c := NewClient("2024-01")
	c.scheme = "http"
	c.httpClient = srv.Client()
	return c
}

func TestLocations(t *testing.T) {
	var gotPath, gotToken, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotQuery = req.Query
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"locations":{"edges":[
			{"node":{"id":"gid://shopify/Location/1","name":"Warehouse"}},
			{"node":{"id":"gid://shopify/Location/2","name":"Storefront"}}
		]}}}`))
	}))
	defer srv.Close()

	c := testClient(srv)
	locations, err := c.Locations(context.Background(), strings.TrimPrefix(srv.URL, "http://"), "shpat_test")
	if err != nil {
		t.Fatalf("locations: %v", err)
	}

	if gotPath != "/admin/api/2024-01/graphql.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotToken != "shpat_test" {
		t.Errorf("access token header = %q", gotToken)
	}
	if !strings.Contains(gotQuery, "locations(first: 250)") {
		t.Errorf("query = %q", gotQuery)
	}

	if len(locations) != 2 {
		t.Fatalf("got %d locations, want 2", len(locations))
	}
	if locations[0].Name != "Warehouse" || locations[1].ID != "gid://shopify/Location/2" {
		t.Errorf("locations = %+v", locations)
	}
}

func TestLocationsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"locations":{"edges":[]}}}`))
	}))
	defer srv.Close()

	locations, err := testClient(srv).Locations(context.Background(), strings.TrimPrefix(srv.URL, "http://"), "t")
	if err != nil {
		t.Fatalf("locations: %v", err)
	}
	if len(locations) != 0 {
		t.Errorf("got %d locations, want 0", len(locations))
	}
}

func TestLocationsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"upstream error status", http.StatusUnauthorized, `{}`, "status 401"},
		{"invalid json", http.StatusOK, `<html>`, "decode"},
		{"missing data", http.StatusOK, `{"errors":[{"message":"throttled"}]}`, "no locations list"},
		{"missing list", http.StatusOK, `{"data":{}}`, "no locations list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := testClient(srv).Locations(context.Background(), strings.TrimPrefix(srv.URL, "http://"), "t")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}
