package track

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opendetect/evalreport/internal/httputil"
)

// Client implements Sink against a tracking server's HTTP API. Metric and
// table payloads are JSON; images and artifacts are multipart uploads.
type Client struct {
	baseURL string
	http    httputil.HTTPClient
	runID   string
}

// NewClient creates a Client for the tracking server at baseURL. A nil
// httpClient falls back to the standard client.
func NewClient(baseURL string, httpClient httputil.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(nil)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// RunID returns the server-assigned run identifier, empty before StartRun.
func (c *Client) RunID() string { return c.runID }

// StartRun registers the run and stores the server-assigned run ID used by
// all subsequent calls.
func (c *Client) StartRun(ctx context.Context, meta RunMeta) error {
	var resp struct {
		RunID string `json:"run_id"`
	}
	if err := httputil.PostJSON(ctx, c.http, c.baseURL+"/api/runs", meta, &resp); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	if resp.RunID == "" {
		return fmt.Errorf("start run: server returned no run_id")
	}
	c.runID = resp.RunID
	return nil
}

func (c *Client) runURL(suffix string) (string, error) {
	if c.runID == "" {
		return "", fmt.Errorf("no active run: call StartRun first")
	}
	return fmt.Sprintf("%s/api/runs/%s/%s", c.baseURL, c.runID, suffix), nil
}

// LogScalars records scalar metrics at the given step.
func (c *Client) LogScalars(ctx context.Context, step int, values map[string]float64) error {
	url, err := c.runURL("scalars")
	if err != nil {
		return err
	}
	payload := struct {
		Step   int                `json:"step"`
		Values map[string]float64 `json:"values"`
	}{Step: step, Values: values}
	if err := httputil.PostJSON(ctx, c.http, url, payload, nil); err != nil {
		return fmt.Errorf("log scalars: %w", err)
	}
	return nil
}

// LogTable records a named plot-table payload.
func (c *Client) LogTable(ctx context.Context, name string, tbl Table) error {
	url, err := c.runURL("tables")
	if err != nil {
		return err
	}
	payload := struct {
		Name string `json:"name"`
		Table
	}{Name: name, Table: tbl}
	if err := httputil.PostJSON(ctx, c.http, url, payload, nil); err != nil {
		return fmt.Errorf("log table %s: %w", name, err)
	}
	return nil
}

// LogImage uploads an image file keyed by name and step.
func (c *Client) LogImage(ctx context.Context, name, path string, step int) error {
	url, err := c.runURL("files")
	if err != nil {
		return err
	}
	fields := map[string]string{
		"name": name,
		"step": strconv.Itoa(step),
	}
	if err := c.upload(ctx, url, path, fields); err != nil {
		return fmt.Errorf("log image %s: %w", name, err)
	}
	return nil
}

// LogArtifact uploads a binary artifact with its metadata and alias tags.
func (c *Client) LogArtifact(ctx context.Context, art Artifact) error {
	url, err := c.runURL("artifacts")
	if err != nil {
		return err
	}
	aliases, err := json.Marshal(art.Aliases)
	if err != nil {
		return fmt.Errorf("log artifact %s: %w", art.Name, err)
	}
	fields := map[string]string{
		"name":    art.Name,
		"type":    art.Type,
		"aliases": string(aliases),
	}
	if err := c.upload(ctx, url, art.Path, fields); err != nil {
		return fmt.Errorf("log artifact %s: %w", art.Name, err)
	}
	return nil
}

// Finish closes the run on the server.
func (c *Client) Finish(ctx context.Context) error {
	url, err := c.runURL("finish")
	if err != nil {
		return err
	}
	if err := httputil.PostJSON(ctx, c.http, url, nil, nil); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// upload POSTs path as a multipart form with the extra fields attached.
func (c *Client) upload(ctx context.Context, url, path string, fields map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload %s: status %d: %s", url, resp.StatusCode, msg)
	}
	return nil
}
