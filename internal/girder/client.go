package girder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API defines the Girder calls the widget depends on. *Client implements it;
// tests substitute fakes.
type API interface {
	ListFolders(ctx context.Context, parentID, parentType, name string) ([]Folder, error)
	FindOutputsFolder(ctx context.Context, folderID string) (Folder, error)
	TriggerJob(ctx context.Context, folderID string) (Job, error)
	JobStatus(ctx context.Context, jobID string) (Job, error)
	FetchOutputs(ctx context.Context, folderID string) (Outputs, error)
	DownloadItem(ctx context.Context, itemID string) ([]byte, error)
	ThumbnailURL(itemID string) string
	ItemURL(itemID string) string
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the Girder REST API.
type Client struct {
	baseURL   *url.URL
	tokens    TokenSource
	http      *http.Client
	userAgent string
}

const (
	defaultAPIRoot   = "http://127.0.0.1:8080/api/v1"
	defaultAPIPath   = "/api/v1"
	defaultUserAgent = "histoqcview/0.1"
	requestTimeout   = 30 * time.Second
	maxErrorBody     = 512
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client rooted at apiRoot. tokens may be nil, in which
// case requests go out unauthenticated.
func NewClient(apiRoot string, tokens TokenSource, opts ...Option) (*Client, error) {
	base, err := parseAPIRoot(apiRoot)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL: base,
		tokens:  tokens,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIRoot returns the normalised API root.
func (c *Client) APIRoot() string {
	return c.baseURL.String()
}

// ListFolders lists child folders of parentID, optionally filtered by exact name.
func (c *Client) ListFolders(ctx context.Context, parentID, parentType, name string) ([]Folder, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(parentID) == "" {
		return nil, fmt.Errorf("parent id required")
	}
	if strings.TrimSpace(parentType) == "" {
		parentType = "folder"
	}
	values := url.Values{}
	values.Set("parentId", parentID)
	values.Set("parentType", parentType)
	if n := strings.TrimSpace(name); n != "" {
		values.Set("name", n)
	}
	var folders []Folder
	if err := c.do(ctx, http.MethodGet, []string{"folder"}, values, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// FindOutputsFolder returns the histoqc_outputs child of folderID.
func (c *Client) FindOutputsFolder(ctx context.Context, folderID string) (Folder, error) {
	folders, err := c.ListFolders(ctx, folderID, "folder", OutputsFolderName)
	if err != nil {
		return Folder{}, err
	}
	for _, f := range folders {
		if f.Name == OutputsFolderName {
			return f, nil
		}
	}
	if len(folders) > 0 {
		return folders[0], nil
	}
	return Folder{}, fmt.Errorf("folder %s: %w", folderID, ErrNoOutputsFolder)
}

// TriggerJob starts a HistoQC run over every image in folderID. The call is
// not idempotent: each invocation schedules a new job.
func (c *Client) TriggerJob(ctx context.Context, folderID string) (Job, error) {
	if c == nil {
		return Job{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(folderID) == "" {
		return Job{}, fmt.Errorf("folder id required")
	}
	var payload triggerResponse
	if err := c.do(ctx, http.MethodPost, []string{"folder", folderID, "histoqc"}, nil, &payload); err != nil {
		return Job{}, err
	}
	if payload.ID == "" {
		return Job{}, malformed("trigger response missing _id")
	}
	return Job{ID: payload.ID, Status: JobInactive}, nil
}

// JobStatus fetches the current status and full log of jobID.
func (c *Client) JobStatus(ctx context.Context, jobID string) (Job, error) {
	if c == nil {
		return Job{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(jobID) == "" {
		return Job{}, fmt.Errorf("job id required")
	}
	var payload struct {
		ID     string     `json:"_id"`
		Status *JobStatus `json:"status"`
		Log    []string   `json:"log"`
	}
	if err := c.do(ctx, http.MethodGet, []string{"job", jobID}, nil, &payload); err != nil {
		return Job{}, err
	}
	if payload.Status == nil {
		return Job{}, malformed("job %s response missing status", jobID)
	}
	id := payload.ID
	if id == "" {
		id = jobID
	}
	return Job{ID: id, Status: *payload.Status, Log: payload.Log}, nil
}

// FetchOutputs retrieves the per-image artifact manifest for folderID.
func (c *Client) FetchOutputs(ctx context.Context, folderID string) (Outputs, error) {
	if c == nil {
		return Outputs{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(folderID) == "" {
		return Outputs{}, fmt.Errorf("folder id required")
	}
	var payload Outputs
	if err := c.do(ctx, http.MethodGet, []string{"folder", folderID, "histoqc"}, nil, &payload); err != nil {
		return Outputs{}, err
	}
	return payload, nil
}

// DownloadItem returns the raw contents of itemID.
func (c *Client) DownloadItem(ctx context.Context, itemID string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(itemID) == "" {
		return nil, fmt.Errorf("item id required")
	}
	resp, err := c.send(ctx, http.MethodGet, []string{"item", itemID, "download"}, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read download", Err: err}
	}
	return data, nil
}

// ThumbnailURL is the tile-server thumbnail for itemID.
func (c *Client) ThumbnailURL(itemID string) string {
	return c.baseURL.JoinPath("item", itemID, "tiles", "thumbnail").String()
}

// ItemURL is the Girder web client's detail view for itemID.
func (c *Client) ItemURL(itemID string) string {
	origin := url.URL{Scheme: c.baseURL.Scheme, Host: c.baseURL.Host, Path: "/"}
	return origin.String() + "#item/" + url.PathEscape(itemID)
}

func (c *Client) do(ctx context.Context, method string, segments []string, query url.Values, dest any) error {
	resp, err := c.send(ctx, method, segments, query)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return malformed("decode response: %v", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method string, segments []string, query url.Values) (*http.Response, error) {
	reqURL := c.baseURL.JoinPath(segments...)
	if len(query) > 0 {
		reqURL.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", c.userAgent)

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if token != "" {
		req.Header.Set("Girder-Token", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "execute request", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{
			Method:     method,
			Path:       reqURL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

func parseAPIRoot(apiRoot string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiRoot)
	if trimmed == "" {
		trimmed = defaultAPIRoot
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_root %q: %w", apiRoot, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_root %q: missing host", apiRoot)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = defaultAPIPath
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
