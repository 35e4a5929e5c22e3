package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/buildinfo"
	"github.com/dmitrijs2005/gophchat/internal/client/credentials"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/common"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	// maxErrorBody caps how much of a failed response is kept for the error.
	maxErrorBody = 64 << 10
)

// HTTPClient talks to the chat backend over its JSON/HTTP API.
//
// The access token is read from the credential store on every request, so a
// login or logout elsewhere in the process takes effect immediately.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	tokens  credentials.Reader
	model   string
}

var _ Client = (*HTTPClient)(nil)

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithTimeout bounds every request, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithModel sets the model_name sent with chat and ask requests.
// Empty leaves the choice to the server.
func WithModel(name string) Option {
	return func(c *HTTPClient) { c.model = name }
}

func NewHTTPClient(baseURL string, tokens credentials.Reader, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse server url: unsupported scheme %q", u.Scheme)
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// authorize attaches the bearer header. The header is always present on
// authenticated calls, empty when no token is stored.
func (c *HTTPClient) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	value := ""
	if token != "" {
		value = common.BearerPrefix + token
	}
	req.Header.Set(common.AuthorizationHeaderName, value)
	return nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, target string, body io.Reader, contentType string, auth bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", "gophchat/"+buildinfo.Version)

	if auth {
		if err := c.authorize(ctx, req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func (c *HTTPClient) newJSONRequest(ctx context.Context, method, target string, payload any) (*http.Request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.newRequest(ctx, method, target, bytes.NewReader(b), contentTypeJSON, true)
}

// do sends req and returns the body of a 2xx response.
func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, mapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mapError(err)
	}
	return body, nil
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, email string, password []byte) (models.Registration, error) {
	b, err := json.Marshal(registerRequest{Email: email, Password: string(password)})
	if err != nil {
		return models.Registration{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("/register", nil), bytes.NewReader(b), contentTypeJSON, false)
	if err != nil {
		return models.Registration{}, err
	}

	body, err := c.do(req)
	if err != nil {
		return models.Registration{}, err
	}

	// The payload is informational; anything we cannot read is ignored.
	var resp registerResponse
	if json.Unmarshal(body, &resp) != nil {
		return models.Registration{}, nil
	}
	return models.Registration{UserID: resp.UserID, Message: resp.Msg}, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", string(password))

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("/login", nil), strings.NewReader(form.Encode()), contentTypeForm, false)
	if err != nil {
		return "", err
	}

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp loginResponse
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("login: %w", common.ErrEmptyCredential)
	}
	return resp.AccessToken, nil
}

func (c *HTTPClient) ListChats(ctx context.Context) ([]models.ChatSession, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("/chats", nil), nil, "", true)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var dtos []chatSessionDTO
	if err := decode(body, &dtos); err != nil {
		return nil, err
	}

	sessions := make([]models.ChatSession, 0, len(dtos))
	for _, d := range dtos {
		sessions = append(sessions, d.model())
	}
	return sessions, nil
}

// StartChat sends the name both in the JSON body and as the session_name
// query parameter; the backend reads the latter.
func (c *HTTPClient) StartChat(ctx context.Context, name string) (int64, error) {
	q := url.Values{}
	q.Set("session_name", name)

	req, err := c.newJSONRequest(ctx, http.MethodPost, c.endpoint("/start_chat", q), startChatRequest{SessionName: name})
	if err != nil {
		return 0, err
	}

	body, err := c.do(req)
	if err != nil {
		return 0, err
	}

	var resp startChatResponse
	if err := decode(body, &resp); err != nil {
		return 0, err
	}
	return resp.SessionID, nil
}

func (c *HTTPClient) ChatMessages(ctx context.Context, sessionID int64) ([]models.Message, error) {
	path := "/chat_messages/" + strconv.FormatInt(sessionID, 10)
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(path, nil), nil, "", true)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var dtos []messageDTO
	if err := decode(body, &dtos); err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(dtos))
	for _, d := range dtos {
		msgs = append(msgs, d.model())
	}
	return msgs, nil
}

func (c *HTTPClient) SendMessage(ctx context.Context, sessionID int64, text string) (string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, c.endpoint("/chat", nil),
		chatRequest{SessionID: sessionID, Message: text, ModelName: c.model})
	if err != nil {
		return "", err
	}

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	return resp.AssistantResponse, nil
}

// UploadDocument posts r as the multipart field "file". Only the
// Authorization header is set explicitly; the multipart writer supplies the
// content type with its boundary.
func (c *HTTPClient) UploadDocument(ctx context.Context, name string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return 0, fmt.Errorf("read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("/upload", nil), &buf, mw.FormDataContentType(), true)
	if err != nil {
		return 0, err
	}

	body, err := c.do(req)
	if err != nil {
		return 0, err
	}

	var resp uploadResponse
	if err := decode(body, &resp); err != nil {
		return 0, err
	}
	return resp.DocumentID, nil
}

func (c *HTTPClient) AskQuestion(ctx context.Context, question string) (string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, c.endpoint("/ask_question", nil),
		askRequest{Question: question, ModelName: c.model})
	if err != nil {
		return "", err
	}

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp askResponse
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// IsServerError reports whether err carries a non-2xx response and returns it.
func IsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
