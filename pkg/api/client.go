// Package api is the HTTP layer: a thin JSON transport plus the auth, user,
// and chat controllers that sit between the UI and the store.
//
// Controller methods return success booleans (or values plus ok) rather
// than errors: failures are classified by status code and surfaced through
// the toast/navigation collaborators, so callers branch without exception
// handling.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Response carries what controllers rely on: a status code and a body that
// parses to the expected shape.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client is the JSON transport. Cookies carry the session, so one client is
// shared by all controllers.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a transport rooted at base (e.g. "https://host/api/v2").
func NewClient(base string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		base: base,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE request with a JSON body.
func (c *Client) Delete(ctx context.Context, path string, body any) (Response, error) {
	return c.do(ctx, http.MethodDelete, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (Response, error) {
	var reader io.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			return Response{}, err
		}
		reader = bytes.NewReader(blob)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return Response{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: resp.StatusCode, Body: blob}, nil
}

// PutMultipart uploads a single file field via PUT, used for avatars.
func (c *Client) PutMultipart(ctx context.Context, path, field, filename string, file io.Reader) (Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return Response{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return Response{}, err
	}
	if err := writer.Close(); err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.base+path, &buf)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: resp.StatusCode, Body: blob}, nil
}
