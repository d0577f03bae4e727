// Package api 是历史接口（消息、会话、账户、上传）的 HTTP 客户端。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agentchat/internal/logger"
	"agentchat/internal/message"
	"agentchat/internal/transport"
)

var log = logger.Named("api")

// StatusError 是非 2xx 响应。401 时 errors.Is(err, transport.ErrUnauthorized) 成立。
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "…"
	}
	if body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, body)
}

func (e *StatusError) Is(target error) bool {
	return target == transport.ErrUnauthorized && e.Code == http.StatusUnauthorized
}

// Client 访问历史接口。AccessToken 优先，否则以 api_key 查询参数认证。
type Client struct {
	BaseURL     string
	APIKey      string
	AccessToken string
	HTTP        *http.Client
}

// New 创建带默认超时的客户端。
func New(baseURL, apiKey, accessToken string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		AccessToken: accessToken,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
}

// Session 是会话记录。
type Session struct {
	ID             string `json:"id"`
	CreatedAt      string `json:"created_at,omitempty"`
	Title          string `json:"title"`
	Summary        string `json:"summary,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	AssistantID    string `json:"assistant_id,omitempty"`
	AccountID      string `json:"account_id,omitempty"`
}

// CreateSession 是 POST /session 的请求体。
type CreateSession struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	AccountID   string `json:"account_id"`
	AssistantID string `json:"assistant_id"`
}

// Account 是账户记录。
type Account struct {
	ID             string `json:"id"`
	CreatedAt      string `json:"created_at,omitempty"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// CreateAccount 是 POST /account 的请求体。
type CreateAccount struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Profile 是 /auth/me 返回的用户资料子集。
type Profile struct {
	FirstName          string   `json:"first_name"`
	LastName           string   `json:"last_name"`
	Nickname           string   `json:"nickname"`
	FavoriteAssistants []string `json:"favorite_assistants"`
}

// Assistant 是助手目录中的一项；创建会话时以 ID 作为 assistant_id。
type Assistant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	InternalName string `json:"internal_name,omitempty"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category,omitempty"`
	Model        string `json:"model,omitempty"`
	Version      string `json:"version,omitempty"`
	Testing      bool   `json:"testing,omitempty"`
}

// User 是当前登录用户。
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	Organization string  `json:"organization"`
	Profile      Profile `json:"profile"`
}

// ListMessages 按 (account, session) 返回有序消息。
func (c *Client) ListMessages(ctx context.Context, accountID, sessionID string) ([]message.Record, error) {
	var out []message.Record
	q := url.Values{"account_id": {accountID}, "session_id": {sessionID}}
	if err := c.do(ctx, http.MethodGet, "/message", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSessions 返回账户下的会话。
func (c *Client) ListSessions(ctx context.Context, accountID string) ([]Session, error) {
	var out []Session
	q := url.Values{"account_id": {accountID}}
	if err := c.do(ctx, http.MethodGet, "/session", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSession 创建会话并返回服务端生成的记录。
func (c *Client) CreateSession(ctx context.Context, in CreateSession) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/session", nil, jsonBody(in), &out)
	return out, err
}

// ListAccounts 返回当前用户可见的账户。
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := c.do(ctx, http.MethodGet, "/account", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAccount 创建账户。
func (c *Client) CreateAccount(ctx context.Context, in CreateAccount) (Account, error) {
	var out Account
	err := c.do(ctx, http.MethodPost, "/account", nil, jsonBody(in), &out)
	return out, err
}

// Me 返回当前用户，用于校验凭据。
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out)
	return out, err
}

// ListAssistants 返回助手目录。category 为空表示全部；ids 非空时只返回这些助手，
// 参数以 ids=a&ids=b 的形式重复。
func (c *Client) ListAssistants(ctx context.Context, category string, ids []string) ([]Assistant, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	for _, id := range ids {
		q.Add("ids", id)
	}
	var out []Assistant
	if err := c.do(ctx, http.MethodGet, "/assistant", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAssistantCategories 返回助手分类。
func (c *Client) ListAssistantCategories(ctx context.Context) ([]string, error) {
	var out struct {
		Categories []string `json:"assistant_categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/assistant/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// SetFavoriteAssistants 覆盖当前用户收藏的助手列表。
func (c *Client) SetFavoriteAssistants(ctx context.Context, ids []string) (Profile, error) {
	if ids == nil {
		ids = []string{}
	}
	in := struct {
		FavoriteAssistants []string `json:"favorite_assistants"`
	}{ids}
	var out Profile
	err := c.do(ctx, http.MethodPatch, "/profile", nil, jsonBody(in), &out)
	return out, err
}

// UploadFile 以 multipart 形式上传文件到会话。
func (c *Client) UploadFile(ctx context.Context, sessionID, path, mimeType string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filepath.Base(path)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	endpoint := "/session/" + url.PathEscape(sessionID) + "/files"
	return c.do(ctx, http.MethodPost, endpoint, nil, &body{reader: &buf, contentType: mw.FormDataContentType()}, nil)
}

type body struct {
	reader      io.Reader
	contentType string
	err         error
}

func jsonBody(v any) *body {
	data, err := json.Marshal(v)
	if err != nil {
		return &body{err: err}
	}
	return &body{reader: bytes.NewReader(data), contentType: "application/json"}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in *body, out any) error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("api url is not configured")
	}
	if in != nil && in.err != nil {
		return fmt.Errorf("%s %s: encode body: %w", method, path, in.err)
	}
	if query == nil {
		query = url.Values{}
	}
	if c.AccessToken == "" && c.APIKey != "" {
		query.Set("api_key", c.APIKey)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if in != nil {
		reader = in.reader
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil && in.contentType != "" {
		req.Header.Set("Content-Type", in.contentType)
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	log.WithFields(logger.Fields{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
