package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"screen-math-llm/src/logutil"
)

type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	// HTTPClient defaults to http.DefaultClient. No timeout is imposed here;
	// callers bound a request through its context.
	HTTPClient *http.Client
}

// generateContent API structures
type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content *CandidateContent `json:"content"`
}

type CandidateContent struct {
	Parts []ResponsePart `json:"parts"`
}

type ResponsePart struct {
	Text *string `json:"text"`
}

// Kind classifies a failed query.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindStatus
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// QueryError is returned for every failed inference call.
type QueryError struct {
	Kind       Kind
	StatusCode int
	Body       string
	Err        error
}

func (e *QueryError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
	case KindTransport:
		return fmt.Sprintf("API request failed: %v", e.Err)
	default:
		return fmt.Sprintf("unexpected API response: %v", e.Err)
	}
}

func (e *QueryError) Unwrap() error { return e.Err }

// Transient reports whether the same request could plausibly succeed later.
func (e *QueryError) Transient() bool {
	switch e.Kind {
	case KindTransport:
		return true
	case KindStatus:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}

var (
	ErrNoCandidates = errors.New("no candidates in API response")
	ErrNoText       = errors.New("first candidate has no text part")
)

const (
	pngMimeType  = "image/png"
	maxErrorBody = 512
)

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{cfg: cfg, http: hc}, nil
}

// Query sends one PNG and its instruction and returns the first candidate's
// first text part, trimmed. There is no retry.
func (c *Client) Query(ctx context.Context, imageData []byte, instruction string) (string, error) {
	request := GenerateRequest{
		Contents: []Content{
			{
				Parts: []Part{
					{Text: instruction},
					{InlineData: &InlineData{
						MimeType: pngMimeType,
						Data:     base64.StdEncoding.EncodeToString(imageData),
					}},
				},
			},
		},
	}

	log.Printf("Sending %d byte image to model %s", len(imageData), c.cfg.Model)
	response, err := c.makeAPIRequest(ctx, request)
	if err != nil {
		var qe *QueryError
		if errors.As(err, &qe) {
			log.Printf("Query failed (%s, transient=%v): %v", qe.Kind, qe.Transient(), err)
		}
		return "", err
	}

	text, err := extractText(response)
	if err != nil {
		log.Printf("Query failed: %v", err)
		return "", &QueryError{Kind: KindMalformed, Err: err}
	}

	log.Printf("Answer from model (%d chars): %q", len(text), logutil.Sanitize(text, 100))
	return text, nil
}

// Ping checks that the key and model are accepted by fetching the model resource.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL(""), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &QueryError{Kind: KindStatus, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

func (c *Client) modelURL(method string) string {
	u := fmt.Sprintf("%s/models/%s", c.cfg.Endpoint, url.PathEscape(c.cfg.Model))
	if method != "" {
		u += ":" + method
	}
	return u + "?key=" + url.QueryEscape(c.cfg.APIKey)
}

func (c *Client) makeAPIRequest(ctx context.Context, request GenerateRequest) (*GenerateResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL("generateContent"), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &QueryError{Kind: KindStatus, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var response GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, &QueryError{Kind: KindMalformed, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return &response, nil
}

// transportError drops the *url.Error wrapper, whose message carries the
// request URL and with it the key.
func transportError(err error) *QueryError {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &QueryError{Kind: KindTransport, Err: err}
}

func extractText(response *GenerateResponse) (string, error) {
	if len(response.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	content := response.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0].Text == nil {
		return "", ErrNoText
	}
	return strings.TrimSpace(*content.Parts[0].Text), nil
}
