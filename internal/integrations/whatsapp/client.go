package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const messagingProduct = "whatsapp"

// textPayload is the body of a text message.
type textPayload struct {
	Body string `json:"body"`
}

// documentPayload is the body of a document message.
type documentPayload struct {
	Link     string `json:"link"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// messageRequest is the Meta Graph API request shape for outbound messages.
// Exactly one of Text or Document is set, matching the Type field.
type messageRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textPayload     `json:"text,omitempty"`
	Document         *documentPayload `json:"document,omitempty"`
}

// messageResponse is the minimal response shape returned by the messages
// endpoint. Meta reports failures either as a non-2xx status or as an
// "error" object inside a 200 body, so both are checked.
type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// credentialsPayload is the expected JSON shape stored in SSM for the Meta
// access token and the business phone-number id.
type credentialsPayload struct {
	Token         string `json:"token"`
	PhoneNumberID string `json:"phone_number_id"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("whatsapp: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Messenger is the outbound-message interface consumed by the pipeline.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendDocument(ctx context.Context, to, documentURL string) error
}

// Client is a focused Meta Graph API client for the WhatsApp messages endpoint.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	credOnce sync.Once
	creds    credentialsPayload
	credErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Client backed by the given paramstore Getter for
// credential retrieval. The access token and phone-number id are fetched
// from SSM on the first send and reused for the lifetime of the process.
func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("whatsapp: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("whatsapp: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:     "https://graph.facebook.com/v21.0",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// resolveCredentials fetches the Meta credentials from SSM on the first call
// and returns the cached result on every subsequent call within the same
// process lifetime.
func (c *Client) resolveCredentials(ctx context.Context) (credentialsPayload, error) {
	c.credOnce.Do(func() {
		c.creds, c.credErr = fetchCredentialsFromParamStore(ctx, c.getter, c.credentialsParameterName())
	})
	return c.creds, c.credErr
}

func (c *Client) credentialsParameterName() string {
	return c.paramPrefix + "/meta-whatsapp-credentials"
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func messagesURL(baseURL, phoneNumberID string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://graph.facebook.com/v21.0"
	}
	return base + "/" + phoneNumberID + "/messages"
}

// SendText posts a plain text message to the given phone number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("whatsapp: recipient must not be empty")
	}
	return c.send(ctx, messageRequest{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "text",
		Text:             &textPayload{Body: body},
	})
}

// SendDocument posts a document message referencing a downloadable URL.
func (c *Client) SendDocument(ctx context.Context, to, documentURL string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("whatsapp: recipient must not be empty")
	}
	if strings.TrimSpace(documentURL) == "" {
		return errors.New("whatsapp: document url must not be empty")
	}
	return c.send(ctx, messageRequest{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "document",
		Document:         &documentPayload{Link: documentURL},
	})
}

func (c *Client) send(ctx context.Context, msg messageRequest) error {
	creds, err := c.resolveCredentials(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal request: %w", err)
	}

	url := messagesURL(c.baseURL, creds.PhoneNumberID)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return fmt.Errorf("whatsapp: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}

	var payload messageResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return fmt.Errorf("whatsapp: decode response: %w", decErr)
	}
	if payload.Error != nil {
		return fmt.Errorf("whatsapp: api error %d (%s): %s", payload.Error.Code, payload.Error.Type, payload.Error.Message)
	}
	return nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchCredentialsFromParamStore(ctx context.Context, getter Getter, name string) (credentialsPayload, error) {
	if getter == nil {
		return credentialsPayload{}, errors.New("whatsapp: paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return credentialsPayload{}, errors.New("whatsapp: credentials parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return credentialsPayload{}, fmt.Errorf("whatsapp: fetch credentials from paramstore: %w", err)
	}
	var cp credentialsPayload
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return credentialsPayload{}, fmt.Errorf("whatsapp: unmarshal paramstore credentials as JSON: %w", err)
	}
	if cp.Token == "" || cp.PhoneNumberID == "" {
		return credentialsPayload{}, errors.New("whatsapp: credentials are incomplete")
	}
	return cp, nil
}
