// Package remote talks to the board server: it loads the dashboard page and posts moves.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hylla/fomo/internal/domain"
	"golang.org/x/net/publicsuffix"
)

// ErrUnexpectedStatus and related errors describe server-side persist failures.
var (
	ErrUnexpectedStatus  = errors.New("unexpected status")
	ErrMalformedResponse = errors.New("malformed response")
	ErrRejected          = errors.New("server rejected move")
	ErrMissingCSRF       = errors.New("csrf token unavailable")
)

const (
	csrfCookieName  = "csrftoken"
	maxResponseSize = 4 << 20
)

// Logger is the logging surface used by the client.
type Logger interface {
	Debug(msg string, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Config holds client construction values.
type Config struct {
	BaseURL   string
	BoardPath string
	UserAgent string
	// Timeout bounds each request; zero means no timeout.
	Timeout time.Duration
	// HTTPClient overrides the transport; its jar is replaced when nil.
	HTTPClient *http.Client
	Logger     Logger
}

// Client is the board server client.
type Client struct {
	base      *url.URL
	boardPath string
	userAgent string
	http      *http.Client
	logger    Logger

	mu   sync.Mutex
	csrf string
}

// New constructs a client with a cookie jar so the session and csrf cookies persist.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}
	boardPath := strings.TrimSpace(cfg.BoardPath)
	if boardPath == "" {
		boardPath = "/"
	}
	var logger Logger = nopLogger{}
	if cfg.Logger != nil {
		logger = cfg.Logger
	}
	return &Client{
		base:      base,
		boardPath: boardPath,
		userAgent: strings.TrimSpace(cfg.UserAgent),
		http:      httpClient,
		logger:    logger,
	}, nil
}

// Source identifies the server this client talks to; it keys the snapshot cache.
func (c *Client) Source() string {
	return c.base.String()
}

// BoardURL returns the absolute dashboard url.
func (c *Client) BoardURL() string {
	return c.resolve(c.boardPath)
}

// LoadBoard fetches and parses the dashboard page. It also refreshes the csrf token.
func (c *Client) LoadBoard(ctx context.Context) (domain.Board, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BoardURL(), nil)
	if err != nil {
		return domain.Board{}, err
	}
	req.Header.Set("Accept", "text/html")
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Board{}, fmt.Errorf("load board: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Board{}, fmt.Errorf("load board: %w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	page, err := parsePage(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return domain.Board{}, fmt.Errorf("load board: %w", err)
	}

	token := page.csrf
	if token == "" {
		token = c.cookieToken()
	}
	c.mu.Lock()
	c.csrf = token
	c.mu.Unlock()

	c.logger.Debug("board loaded", "groups", len(page.board.Groups), "tasks", len(page.board.Tasks), "csrf", token != "")
	return page.board, nil
}

// MoveTask moves a task to a group (empty id for the inbox) at a 1-based position.
func (c *Client) MoveTask(ctx context.Context, taskID, groupID string, position int) (*domain.Counts, error) {
	form := url.Values{}
	form.Set("group_id", groupID)
	form.Set("position", strconv.Itoa(position))
	return c.post(ctx, "/task/"+url.PathEscape(taskID)+"/move/", form)
}

// ReorderGroup sets a group's 1-based order.
func (c *Client) ReorderGroup(ctx context.Context, groupID string, order int) (*domain.Counts, error) {
	form := url.Values{}
	form.Set("order", strconv.Itoa(order))
	return c.post(ctx, "/group/"+url.PathEscape(groupID)+"/reorder/", form)
}

// moveResponse is the json body the server returns for Accept: application/json moves.
type moveResponse struct {
	Success    bool         `json:"success"`
	Groups     []groupCount `json:"groups"`
	InboxCount *int         `json:"inbox_count"`
	Error      string       `json:"error"`
}

type groupCount struct {
	ID        flexID `json:"id"`
	TaskCount int    `json:"task_count"`
}

// flexID accepts both numeric and string ids.
type flexID string

// UnmarshalJSON decodes a json number or string.
func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*domain.Counts, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CSRFToken", token)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.BoardURL())
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("post %s: %w: %d", path, ErrUnexpectedStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("post %s: read body: %w", path, err)
	}
	return decodeMoveResponse(resp.Header.Get("Content-Type"), body)
}

// decodeMoveResponse accepts only a json success body. Empty and html bodies (a login page,
// a proxy error) are malformed. A success without counts returns nil counts.
func decodeMoveResponse(contentType string, body []byte) (*domain.Counts, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if strings.HasPrefix(contentType, "text/html") || trimmed[0] == '<' {
		return nil, fmt.Errorf("%w: html body (%s)", ErrMalformedResponse, contentType)
	}
	var payload moveResponse
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !payload.Success {
		if payload.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrRejected, payload.Error)
		}
		return nil, ErrRejected
	}
	if payload.Groups == nil && payload.InboxCount == nil {
		return nil, nil
	}
	counts := &domain.Counts{Groups: make(map[string]int, len(payload.Groups))}
	for _, group := range payload.Groups {
		counts.Groups[string(group.ID)] = group.TaskCount
	}
	if payload.InboxCount != nil {
		counts.Inbox = *payload.InboxCount
		counts.HasInbox = true
	}
	return counts, nil
}

// token returns the csrf token, loading the board once when none is known yet.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrf
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	if token = c.cookieToken(); token != "" {
		return token, nil
	}
	if _, err := c.LoadBoard(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingCSRF, err)
	}
	c.mu.Lock()
	token = c.csrf
	c.mu.Unlock()
	if token == "" {
		return "", ErrMissingCSRF
	}
	return token, nil
}

func (c *Client) cookieToken() string {
	if c.http.Jar == nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) decorate(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return strings.TrimRight(c.base.String(), "/") + path
	}
	return c.base.ResolveReference(ref).String()
}
