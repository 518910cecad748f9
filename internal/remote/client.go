package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docgateway/internal/config"
	"docgateway/internal/model"
)

// Remote operations, named after the endpoints they call.
const (
	OpProcessDocument = "process-document"
	OpAskDocument     = "ask-document"
)

const maxDetailLen = 512

// ErrRemoteService matches every *Error via errors.Is.
var ErrRemoteService = errors.New("remote service error")

// Error is the single failure kind for calls to the document-understanding service.
// Transport failures carry StatusCode 0.
type Error struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

func (e *Error) Is(target error) bool { return target == ErrRemoteService }

// Client talks to the document-understanding service. Each call is a single attempt.
type Client interface {
	// SubmitDocument asks the service to process the staged file at filePath.
	SubmitDocument(ctx context.Context, filePath string) (model.ProcessingResult, error)
	// SubmitQuestion asks a question about a file path or raw document text.
	SubmitQuestion(ctx context.Context, q model.Question) (model.AnswerResult, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// New builds a Client for cfg.BaseURL with an instrumented transport and cfg's timeout.
func New(cfg config.RemoteConfig) Client {
	return NewWithHTTPClient(cfg.BaseURL, &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.Timeout(),
	})
}

// NewWithHTTPClient builds a Client around an existing *http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) Client {
	return &httpClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *httpClient) SubmitDocument(ctx context.Context, filePath string) (model.ProcessingResult, error) {
	raw, err := c.post(ctx, OpProcessDocument, map[string]string{"file_path": filePath})
	if err != nil {
		return nil, err
	}
	var out model.ProcessingResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Op: OpProcessDocument, Detail: "unexpected response: " + err.Error()}
	}
	if out == nil {
		return nil, &Error{Op: OpProcessDocument, Detail: "unexpected response: null result"}
	}
	return out, nil
}

func (c *httpClient) SubmitQuestion(ctx context.Context, q model.Question) (model.AnswerResult, error) {
	return c.post(ctx, OpAskDocument, q)
}

// post sends body as JSON and returns the raw response payload, normalising every failure into *Error.
func (c *httpClient) post(ctx context.Context, op string, body any) (json.RawMessage, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Op: op, Detail: "encode request: " + err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(b))
	if err != nil {
		return nil, &Error{Op: op, Detail: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Detail: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Detail: "read response: " + err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Detail: detailOf(payload, resp.Status)}
	}
	if !json.Valid(payload) {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Detail: "response is not valid JSON"}
	}
	return json.RawMessage(payload), nil
}

// detailOf extracts FastAPI's {"detail": ...} when present, otherwise the trimmed body.
func detailOf(payload []byte, status string) string {
	var fe struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &fe); err == nil && len(fe.Detail) > 0 {
		var s string
		if json.Unmarshal(fe.Detail, &s) == nil {
			return truncate(s)
		}
		return truncate(string(fe.Detail))
	}
	if s := strings.TrimSpace(string(payload)); s != "" {
		return truncate(s)
	}
	return status
}

func truncate(s string) string {
	if len(s) > maxDetailLen {
		return s[:maxDetailLen] + "..."
	}
	return s
}
