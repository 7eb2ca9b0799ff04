package ipfs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charitypix/charitypix/services/gallery"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := New(Config{APIURL: srv.URL, GatewayURL: "http://127.0.0.1:8080"}, nil)
	return client, srv
}

func TestClient_Store(t *testing.T) {
	var gotPath string
	var gotBody []byte
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm failed: %v", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile failed: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotBody, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"Name":"sunset","Hash":"QmTestHash123","Size":"11"}`)
	}))

	cid, err := client.Store(context.Background(), "sunset", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if cid != "QmTestHash123" {
		t.Errorf("Expected QmTestHash123, got %s", cid)
	}
	if gotPath != "/api/v0/add" {
		t.Errorf("Expected /api/v0/add, got %s", gotPath)
	}
	if string(gotBody) != "image-bytes" {
		t.Errorf("Node received wrong bytes: %q", gotBody)
	}
}

func TestClient_Store_NodeDown(t *testing.T) {
	client := New(Config{APIURL: "http://127.0.0.1:1"}, nil)
	_, err := client.Store(context.Background(), "x", strings.NewReader("data"))
	if !errors.Is(err, gallery.ErrStorageUnavailable) {
		t.Fatalf("Expected ErrStorageUnavailable, got %v", err)
	}
}

func TestClient_Store_ErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"Message":"disk full","Code":0}`)
	}))

	_, err := client.Store(context.Background(), "x", strings.NewReader("data"))
	if !errors.Is(err, gallery.ErrStorageUnavailable) {
		t.Fatalf("Expected ErrStorageUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error should carry the node message, got %v", err)
	}
}

func TestClient_Publish(t *testing.T) {
	var gotArgs []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/files/cp" {
			t.Errorf("Expected /api/v0/files/cp, got %s", r.URL.Path)
		}
		gotArgs = r.URL.Query()["arg"]
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.Publish(context.Background(), "QmTestHash123"); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "/ipfs/QmTestHash123" || gotArgs[1] != "/QmTestHash123" {
		t.Errorf("Wrong cp args: %v", gotArgs)
	}
}

func TestClient_Publish_Idempotent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"Message":"cp: directory already has entry by that name","Code":0}`)
	}))

	if err := client.Publish(context.Background(), "QmTestHash123"); err != nil {
		t.Fatalf("Re-publish must be a no-op, got %v", err)
	}
}

func TestClient_Publish_Failure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"Message":"files api disabled","Code":0}`)
	}))

	err := client.Publish(context.Background(), "QmTestHash123")
	if !errors.Is(err, gallery.ErrStorageUnavailable) {
		t.Fatalf("Expected ErrStorageUnavailable, got %v", err)
	}
}

func TestClient_ResolveURL(t *testing.T) {
	client := New(Config{GatewayURL: "http://127.0.0.1:8080/"}, nil)
	got := client.ResolveURL("QmAbc")
	if got != "http://127.0.0.1:8080/ipfs/QmAbc" {
		t.Errorf("ResolveURL = %s", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	client := New(Config{}, nil)
	if client.apiURL != DefaultAPIURL {
		t.Errorf("Expected default API URL, got %s", client.apiURL)
	}
	if client.gatewayURL != DefaultGatewayURL {
		t.Errorf("Expected default gateway URL, got %s", client.gatewayURL)
	}
}
