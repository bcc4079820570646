// Package client is a thin typed caller for the contract HTTP API, used by contractctl.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/api"
	"github.com/akolanti/ContractIntelAPI/internal/customHttpClient"
)

// Error is a non-2xx reply decoded from the API's error envelope.
type Error struct {
	Status  int
	Kind    string
	Message string
	TraceId string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
	if e.TraceId != "" {
		msg += " (trace " + e.TraceId + ")"
	}
	return msg
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A zero timeout leaves requests bounded only by ctx,
// which streaming answers need.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    customHttpClient.NewClient(timeout),
	}
}

func (c *Client) Ingest(ctx context.Context, paths ...string) (api.IngestResponse, error) {
	var out api.IngestResponse
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for _, p := range paths {
		if err := attach(form, p); err != nil {
			return out, err
		}
	}
	if err := form.Close(); err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ingest", body)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return out, c.do(req, &out)
}

func attach(form *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := form.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (c *Client) Document(ctx context.Context, id string) (api.DocumentResponse, error) {
	var out api.DocumentResponse
	return out, c.call(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil, &out)
}

func (c *Client) Reprocess(ctx context.Context, id string) (api.DocumentHandle, error) {
	var out api.DocumentHandle
	return out, c.call(ctx, http.MethodPost, "/documents/"+url.PathEscape(id)+"/reprocess", nil, &out)
}

func (c *Client) Findings(ctx context.Context, id string) (api.FindingsResponse, error) {
	var out api.FindingsResponse
	return out, c.call(ctx, http.MethodGet, "/documents/"+url.PathEscape(id)+"/findings", nil, &out)
}

func (c *Client) DocumentJobs(ctx context.Context, id string) (api.DocumentJobsResponse, error) {
	var out api.DocumentJobsResponse
	return out, c.call(ctx, http.MethodGet, "/documents/"+url.PathEscape(id)+"/jobs", nil, &out)
}

func (c *Client) Job(ctx context.Context, id string) (api.JobResponse, error) {
	var out api.JobResponse
	return out, c.call(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &out)
}

func (c *Client) Extract(ctx context.Context, req api.ExtractRequest) (api.ExtractResponse, error) {
	var out api.ExtractResponse
	return out, c.call(ctx, http.MethodPost, "/extract", req, &out)
}

func (c *Client) Ask(ctx context.Context, req api.AskRequest) (api.AskResponse, error) {
	var out api.AskResponse
	return out, c.call(ctx, http.MethodPost, "/ask", req, &out)
}

func (c *Client) Audit(ctx context.Context, req api.AuditRequest) (api.AuditResponse, error) {
	var out api.AuditResponse
	return out, c.call(ctx, http.MethodPost, "/audit", req, &out)
}

func (c *Client) Stats(ctx context.Context) (api.StatsResponse, error) {
	var out api.StatsResponse
	return out, c.call(ctx, http.MethodGet, "/stats", nil, &out)
}

// Health decodes the body for 503 as well, since a degraded reply still lists components.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return out, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusServiceUnavailable {
		return out, decodeError(res)
	}
	return out, json.NewDecoder(res.Body).Decode(&out)
}

// Event is one server-sent event from /ask/stream.
type Event struct {
	Name string
	Data json.RawMessage
}

// AskStream calls fn for each event in order. It returns when the stream ends,
// fn returns an error or ctx is cancelled.
func (c *Client) AskStream(ctx context.Context, req api.AskRequest, fn func(Event) error) error {
	q := url.Values{}
	q.Set("question", req.Question)
	if len(req.DocumentIds) > 0 {
		q.Set("document_ids", strings.Join(req.DocumentIds, ","))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ask/stream?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	res, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return decodeError(res)
	}

	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	var ev Event
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if ev.Name != "" {
				if err := fn(ev); err != nil {
					return err
				}
			}
			ev = Event{}
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.Data = json.RawMessage(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	return scanner.Err()
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeError(res)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeError(res *http.Response) error {
	var env api.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err := json.Unmarshal(raw, &env); err != nil || env.Error.Kind == "" {
		return &Error{Status: res.StatusCode, Kind: "unknown", Message: strings.TrimSpace(string(raw))}
	}
	return &Error{Status: res.StatusCode, Kind: env.Error.Kind, Message: env.Error.Message, TraceId: env.TraceId}
}
