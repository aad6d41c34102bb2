package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/huangang/problempad/internal/report"
)

const reportsPath = "/api/reports"

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// Remote is the network side of the store.
type Remote interface {
	List(ctx context.Context) ([]report.Report, error)
	Replace(ctx context.Context, reports []report.Report) error
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: API returned status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// RemoteClient talks to the report API over HTTP.
type RemoteClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemoteClient creates a client for the API at baseURL. A zero timeout
// means requests are bounded only by the caller's context.
func NewRemoteClient(baseURL string, timeout time.Duration) *RemoteClient {
	return &RemoteClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// List fetches every report in insertion order.
func (c *RemoteClient) List(ctx context.Context) ([]report.Report, error) {
	body, err := c.do(ctx, http.MethodGet, reportsPath, nil)
	if err != nil {
		return nil, err
	}

	var reports []report.Report
	if err := json.Unmarshal(body, &reports); err != nil {
		return nil, fmt.Errorf("decode report list: %w", err)
	}
	if reports == nil {
		reports = []report.Report{}
	}
	return reports, nil
}

// Replace overwrites the remote collection with reports.
func (c *RemoteClient) Replace(ctx context.Context, reports []report.Report) error {
	if reports == nil {
		reports = []report.Report{}
	}
	payload, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("encode report list: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, reportsPath, payload)
	return err
}

func (c *RemoteClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, URL: url, Code: resp.StatusCode, Body: snippet}
	}

	return body, nil
}
