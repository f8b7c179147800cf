// Package httpapi implements the CommentAPI port against the platform's REST
// comments endpoints.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
	"github.com/ericfisherdev/threadkit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommentAPI = (*Client)(nil)

// Client implements the driven.CommentAPI port over the platform's JSON API.
// Mutating requests carry a bearer token; thread fetches go through an
// httpcache memory transport so unchanged threads answer from ETag-validated
// conditional requests.
type Client struct {
	http    *http.Client
	baseURL string

	// mu guards token: SetToken may race with in-flight requests after the
	// auth redirect completes.
	mu    sync.RWMutex
	token string
}

// NewClient creates an API client for the given base URL. The transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. net/http with a hard request timeout (the controller treats a timeout
//     like any other failure; cancellation of a dispatched call is not offered)
func NewClient(baseURL, token string) *Client {
	return &Client{
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}, nil
}

// SetToken swaps the bearer token, e.g. after the user completes the
// authentication flow mid-session.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// authorJSON mirrors the author object embedded in comment responses.
type authorJSON struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// commentJSON mirrors the wire representation of a comment.
type commentJSON struct {
	ID              string     `json:"id"`
	PostID          string     `json:"postId"`
	Content         string     `json:"content"`
	ParentCommentID *string    `json:"parentCommentId"`
	Depth           int        `json:"depth"`
	Edited          bool       `json:"edited"`
	CreatedAt       time.Time  `json:"createdAt"`
	Author          authorJSON `json:"author"`
}

// errorJSON is the API's error envelope.
type errorJSON struct {
	Message string `json:"message"`
}

// Create submits a new comment and returns the canonical node the server
// stored. Each call carries a fresh Idempotency-Key so a transport-level
// replay of the same request cannot double-post.
func (c *Client) Create(ctx context.Context, postID, content string, parentID *string) (model.Comment, error) {
	body := struct {
		Content         string  `json:"content"`
		ParentCommentID *string `json:"parentCommentId,omitempty"`
	}{Content: content, ParentCommentID: parentID}

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/posts/%s/comments", url.PathEscape(postID)), body)
	if err != nil {
		return model.Comment{}, err
	}
	req.Header.Set("Idempotency-Key", uuid.NewString())

	var wire commentJSON
	if err := c.do(req, &wire); err != nil {
		return model.Comment{}, fmt.Errorf("creating comment on post %s: %w", postID, err)
	}
	return mapComment(wire), nil
}

// Update replaces the content of an existing comment.
func (c *Client) Update(ctx context.Context, commentID, content string) (model.Comment, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}

	req, err := c.newRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/comments/%s", url.PathEscape(commentID)), body)
	if err != nil {
		return model.Comment{}, err
	}

	var wire commentJSON
	if err := c.do(req, &wire); err != nil {
		return model.Comment{}, fmt.Errorf("updating comment %s: %w", commentID, err)
	}
	return mapComment(wire), nil
}

// Delete removes a comment; the server cascades to its reply subtree.
func (c *Client) Delete(ctx context.Context, commentID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%s", url.PathEscape(commentID)), nil)
	if err != nil {
		return err
	}

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("deleting comment %s: %w", commentID, err)
	}
	return nil
}

// ListByPost fetches every comment on the post as flat rows.
func (c *Client) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/posts/%s/comments", url.PathEscape(postID)), nil)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Comments []commentJSON `json:"comments"`
	}
	if err := c.do(req, &wire); err != nil {
		return nil, fmt.Errorf("listing comments for post %s: %w", postID, err)
	}

	comments := make([]model.Comment, 0, len(wire.Comments))
	for _, w := range wire.Comments {
		comments = append(comments, mapComment(w))
	}
	return comments, nil
}

// newRequest builds a JSON request against the configured base URL.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearerToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes the request, maps failure statuses to the domain error taxonomy,
// and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &model.ServerError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			// Drain so the transport can reuse the connection.
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &model.ServerError{Message: fmt.Sprintf("decoding response: %v", err)}
		}
		return nil
	}

	return mapStatus(resp.StatusCode, resp.Body)
}

// mapStatus converts a failure response into the typed error the ports
// contract promises.
func mapStatus(status int, body io.Reader) error {
	var envelope errorJSON
	_ = json.NewDecoder(io.LimitReader(body, 4096)).Decode(&envelope)

	switch status {
	case http.StatusUnauthorized:
		return model.ErrAuthRequired
	case http.StatusForbidden:
		return model.ErrForbidden
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusUnprocessableEntity:
		msg := envelope.Message
		if msg == "" {
			msg = "content rejected"
		}
		return &model.ValidationError{Message: msg}
	default:
		msg := envelope.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &model.ServerError{StatusCode: status, Message: msg}
	}
}

// mapComment converts a wire comment to the domain model.
func mapComment(w commentJSON) model.Comment {
	return model.Comment{
		ID:        w.ID,
		PostID:    w.PostID,
		Content:   w.Content,
		ParentID:  w.ParentCommentID,
		Depth:     w.Depth,
		Edited:    w.Edited,
		CreatedAt: w.CreatedAt,
		Author: model.Author{
			ID:          w.Author.ID,
			Username:    w.Author.Username,
			DisplayName: w.Author.DisplayName,
			AvatarURL:   w.Author.AvatarURL,
		},
	}
}
