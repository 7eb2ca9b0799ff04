// Package ipfs provides the storage gateway over the Kubo HTTP RPC API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charitypix/charitypix/pkg/logger"
	"github.com/charitypix/charitypix/services/gallery"
)

// Default local Kubo endpoints, matching a stock daemon.
const (
	DefaultAPIURL     = "http://127.0.0.1:5001"
	DefaultGatewayURL = "http://127.0.0.1:8080"
)

// Config holds client configuration.
type Config struct {
	APIURL     string // Kubo RPC endpoint
	GatewayURL string // HTTP gateway base for retrieval URLs
	Timeout    time.Duration
}

// Client talks to a Kubo node. Store uploads a blob and returns its content
// identifier; Publish copies the identifier into the node's files namespace
// so it shows up in the WebUI listing.
type Client struct {
	apiURL     string
	gatewayURL string
	httpClient *http.Client
	log        *logger.Logger
}

var _ gallery.StorageGateway = (*Client)(nil)

// New creates a Kubo client.
func New(cfg Config, log *logger.Logger) *Client {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	gatewayURL := strings.TrimRight(cfg.GatewayURL, "/")
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("ipfs")
	}

	return &Client{
		apiURL:     apiURL,
		gatewayURL: gatewayURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// addResponse is the body of /api/v0/add.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// errorResponse is the body Kubo returns on RPC failures.
type errorResponse struct {
	Message string `json:"Message"`
	Code    int    `json:"Code"`
}

// Store uploads a blob and returns its content identifier. The identifier
// is derived from the blob bytes by the node, so storing identical content
// twice yields the same identifier.
func (c *Client) Store(ctx context.Context, name string, blob io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, blob); err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v0/add?pin=true", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", gallery.ErrStorageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: add returned status %d: %s",
			gallery.ErrStorageUnavailable, resp.StatusCode, readErrorMessage(resp.Body))
	}

	var added addResponse
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", fmt.Errorf("%w: decode add response: %v", gallery.ErrStorageUnavailable, err)
	}
	if added.Hash == "" {
		return "", fmt.Errorf("%w: add returned no content id", gallery.ErrStorageUnavailable)
	}

	c.log.WithField("cid", added.Hash).Debug("blob stored")
	return added.Hash, nil
}

// Publish copies the stored content into the files namespace at /<cid>.
// Publishing the same identifier twice is a no-op, not an error.
func (c *Client) Publish(ctx context.Context, contentID string) error {
	endpoint := fmt.Sprintf("%s/api/v0/files/cp?arg=%s&arg=%s",
		c.apiURL,
		url.QueryEscape("/ipfs/"+contentID),
		url.QueryEscape("/"+contentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", gallery.ErrStorageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	msg := readErrorMessage(resp.Body)
	if strings.Contains(msg, "already has entry") {
		// Re-publishing the same identifier.
		return nil
	}
	return fmt.Errorf("%w: files/cp returned status %d: %s",
		gallery.ErrStorageUnavailable, resp.StatusCode, msg)
}

// ResolveURL derives the retrieval URL for a content identifier. Pure; no
// network call.
func (c *Client) ResolveURL(contentID string) string {
	return c.gatewayURL + "/ipfs/" + contentID
}

func readErrorMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return ""
	}
	var rpcErr errorResponse
	if json.Unmarshal(body, &rpcErr) == nil && rpcErr.Message != "" {
		return rpcErr.Message
	}
	return strings.TrimSpace(string(body))
}
