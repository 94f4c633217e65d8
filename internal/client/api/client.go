// Package api is the remote gateway: authenticated calls against the
// document store REST surface holding the event log and entity snapshots.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/pkg/api"
)

//go:generate moq -out tokensource_mock.go . TokenSource

// TokenSource supplies a valid bearer token for every call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// DefaultTimeout ограничивает каждый отдельный HTTP вызов
const DefaultTimeout = 30 * time.Second

// Client представляет HTTP клиент удаленного хранилища документов
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	baseURL    string
	project    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for skipped documents.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient создает новый клиент. baseURL указывает на корень REST API,
// например "https://firestore.googleapis.com/v1".
func NewClient(baseURL, project string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		project: project,
		tokens:  tokens,
		logger:  slog.Default(),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Project returns the project id the client writes to.
func (c *Client) Project() string {
	return c.project
}

func (c *Client) commitURL() string {
	return c.baseURL + "/" + api.DatabasePath(c.project) + "/documents:commit"
}

func (c *Client) runQueryURL(uid string) string {
	return c.baseURL + "/" + api.DocumentsPath(c.project) + "/" + api.CollectionUsers + "/" + uid + ":runQuery"
}

func (c *Client) documentURL(uid, collection, id string) string {
	return c.baseURL + "/" + api.UserDocumentPath(c.project, uid, collection, id)
}

// doRequest выполняет HTTP запрос и превращает любую неудачу в *apperrors.NetworkError
func (c *Client) doRequest(ctx context.Context, op, method, url string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperrors.NetworkError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperrors.NetworkError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ne := &apperrors.NetworkError{Op: op, StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			ne.Status = errResp.Error.Status
			ne.Err = errors.New(errResp.Error.Message)
		} else {
			ne.Err = fmt.Errorf("unexpected response: %s", truncateBody(respBody))
		}
		return ne
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func truncateBody(b []byte) string {
	const maxBody = 512
	if len(b) > maxBody {
		return string(b[:maxBody]) + "..."
	}
	return string(b)
}

// isAlreadyExists распознает отказ по предусловию exists=false
func isAlreadyExists(err error) bool {
	var ne *apperrors.NetworkError
	if !errors.As(err, &ne) {
		return false
	}
	return ne.StatusCode == http.StatusConflict ||
		ne.Status == api.StatusAlreadyExists ||
		ne.Status == api.StatusFailedPrecondition
}
