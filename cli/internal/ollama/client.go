// Package ollama provides an HTTP client for the Ollama API: a liveness
// probe, model listing, and blocking generation with the failure taxonomy
// the hook's error policy is built on.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/zyzyva/summarizer/cli/internal/prompt"
)

// Failure taxonomy. Callers branch with errors.Is; every error returned by
// this package wraps exactly one of these.
var (
	// ErrUnreachable indicates the server is not listening (connection refused,
	// DNS failure, or non-2xx status).
	ErrUnreachable = errors.New("ollama server unreachable")
	// ErrTimeout indicates the connect or read deadline expired.
	ErrTimeout = errors.New("ollama request timed out")
	// ErrMalformedResponse indicates the generate response had no usable
	// "response" field.
	ErrMalformedResponse = errors.New("ollama response malformed")
	// ErrMalformedJSON indicates a JSON-mode response contained no parseable object.
	ErrMalformedJSON = errors.New("model output is not valid JSON")
)

const _probeTimeout = 10 * time.Second

// Client calls the Ollama API. Zero value is not valid; use NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	probe      *http.Client
}

// NewClient builds a client for the API root (e.g. http://localhost:11434).
// connectTimeout bounds TCP establishment; readTimeout bounds the whole
// generate call, which for local inference is legitimately minutes.
func NewClient(baseURL string, connectTimeout, readTimeout time.Duration) *Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{DialContext: dialer.DialContext}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: readTimeout, Transport: transport},
		probe:      &http.Client{Timeout: _probeTimeout, Transport: transport},
	}
}

// NewClientWithHTTPClient builds a client around an existing http.Client.
// Used by tests; the same client serves probes and generation.
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		probe:      httpClient,
	}
}

// Ping verifies the server answers at all. It GETs /api/tags with the short
// probe timeout so an absent backend fails in seconds, not after the full
// generate deadline. Any failure is ErrUnreachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.tags(ctx)
	return err
}

// Models returns the model names the server reports via /api/tags.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	body, err := c.tags(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(body.Models))
	for _, m := range body.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *Client) tags(ctx context.Context) (*tagsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama tags request: %w", err)
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %w", errors.Join(ErrUnreachable, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags: %w: HTTP %d", ErrUnreachable, resp.StatusCode)
	}
	var body tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ollama tags: %w", errors.Join(ErrUnreachable, err))
	}
	return &body, nil
}

// Options are per-call generation knobs.
type Options struct {
	// Temperature is passed through to the model runtime (0 = server default).
	Temperature float64
}

// Response is one generate result. Text always holds the raw model output;
// JSON is set only for prompt.ModeJSON calls.
type Response struct {
	Text string
	JSON map[string]json.RawMessage
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Generate POSTs /api/generate and waits for the complete (non-streamed)
// response. In prompt.ModeJSON the object between the first "{" and last "}"
// of the model text is parsed; conversational wrapper text around it is
// tolerated. Errors wrap ErrTimeout, ErrUnreachable, ErrMalformedResponse,
// or ErrMalformedJSON.
func (c *Client) Generate(ctx context.Context, model, promptText string, mode prompt.Mode, opts *Options) (*Response, error) {
	reqBody := generateRequest{Model: model, Prompt: promptText, Stream: false}
	if opts != nil && opts.Temperature > 0 {
		reqBody.Options = map[string]any{"temperature": opts.Temperature}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ollama generate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", errors.Join(classifyTransport(err), err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama generate: %w: HTTP %d", ErrUnreachable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: read body: %w", errors.Join(classifyTransport(err), err))
	}
	var body generateResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("ollama generate: %w", errors.Join(ErrMalformedResponse, err))
	}
	if body.Response == nil {
		return nil, fmt.Errorf("ollama generate: no response field: %w", ErrMalformedResponse)
	}

	out := &Response{Text: *body.Response}
	if mode == prompt.ModeJSON {
		obj, err := ExtractJSON(out.Text)
		if err != nil {
			return nil, err
		}
		out.JSON = obj
	}
	return out, nil
}

// ExtractJSON locates the object between the first "{" and the last "}" of
// text and parses it. Returns ErrMalformedJSON when no brace pair exists or
// the substring does not parse.
func ExtractJSON(text string) (map[string]json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output: %w", ErrMalformedJSON)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return obj, nil
}

// classifyTransport maps a transport error onto the taxonomy: deadline and
// net timeouts become ErrTimeout, everything else ErrUnreachable.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnreachable
}
