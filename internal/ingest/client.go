package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"snapvault/internal/signer"
	"snapvault/pkg/models"
)

// Client talks to the api-server: sign requests and catalog upserts. The
// basic-auth credential is the upload gate's "user:pass" pair.
type Client struct {
	BaseURL string
	Auth    string
	HTTP    *http.Client
}

func NewClient(baseURL, auth string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Auth:    auth,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

type signRequest struct {
	Kind        string `json:"type"`
	Source      string `json:"source"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// Sign requests a write credential for one file.
func (c *Client) Sign(ctx context.Context, kind, source, filename, contentType string) (signer.Grant, error) {
	var grant signer.Grant
	err := c.doJSON(ctx, http.MethodPost, c.BaseURL+"/api/sign", signRequest{
		Kind:        kind,
		Source:      source,
		Filename:    filename,
		ContentType: contentType,
	}, &grant)
	if err != nil {
		return signer.Grant{}, err
	}
	return grant, nil
}

type publishResponse struct {
	OK    bool                 `json:"ok"`
	Item  models.CatalogRecord `json:"item"`
	Count int                  `json:"count"`
}

// Publish upserts one record into the shared catalog.
func (c *Client) Publish(ctx context.Context, rec models.CatalogRecord) (models.CatalogRecord, int, error) {
	var resp publishResponse
	if err := c.doJSON(ctx, http.MethodPost, c.BaseURL+"/api/catalog", rec, &resp); err != nil {
		return models.CatalogRecord{}, 0, err
	}
	return resp.Item, resp.Count, nil
}

// Fetch reads the whole catalog.
func (c *Client) Fetch(ctx context.Context) ([]models.CatalogRecord, error) {
	var resp models.Catalog
	if err := c.doJSON(ctx, http.MethodGet, c.BaseURL+"/api/catalog", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Auth != "" {
		if user, pass, ok := strings.Cut(c.Auth, ":"); ok {
			req.SetBasicAuth(user, pass)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, url, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, url, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
