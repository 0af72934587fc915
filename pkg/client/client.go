// Package client talks to a dbcforge server over its REST API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/ssargent/dbcforge/pkg/api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	filesEndpoint  = "/api/v1/files"
	fileEndpoint   = "/api/v1/files/{id}"
	fieldEndpoint  = "/api/v1/files/{id}/records/{record}/fields/{field}"
	buildsEndpoint = "/api/v1/schemas/{table}/builds"
	healthEndpoint = "/api/v1/health"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("file busy")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a non-2xx reply. errors.Is matches it against ErrNotFound,
// ErrConflict and ErrUnauthorized by status code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrConflict:
		return e.Code == http.StatusConflict
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	}
	return false
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// Client is a dbcforge API client.
type Client struct {
	client *resty.Client
}

// New creates a client for the server at baseURL. An empty apiKey sends no
// X-API-Key header.
func New(baseURL, apiKey string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if apiKey != "" {
		c.SetHeader("X-API-Key", apiKey)
	}
	return &Client{client: c}
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	_, err := call[map[string]string](c.client.R().SetContext(ctx), http.MethodGet, healthEndpoint)
	return err
}

// Upload stores data as a new file of the named table and build.
func (c *Client) Upload(ctx context.Context, name, build string, data []byte) (*api.FileInfo, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data)
	if build != "" {
		req.SetQueryParam("build", build)
	}
	info, err := call[api.FileInfo](req, http.MethodPost, filesEndpoint)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// List returns every stored file.
func (c *Client) List(ctx context.Context) ([]api.FileInfo, error) {
	return call[[]api.FileInfo](c.client.R().SetContext(ctx), http.MethodGet, filesEndpoint)
}

// Table returns the decoded file.
func (c *Client) Table(ctx context.Context, id string) (*api.TableResponse, error) {
	req := c.client.R().SetContext(ctx).SetPathParam("id", id)
	table, err := call[api.TableResponse](req, http.MethodGet, fileEndpoint)
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// Find returns the records whose field equals value.
func (c *Client) Find(ctx context.Context, id, field, value string) (*api.TableResponse, error) {
	req := c.client.R().SetContext(ctx).SetPathParam("id", id).
		SetQueryParams(map[string]string{"field": field, "value": value})
	return find(req)
}

// FindRange returns the records whose field lies in [from, to].
func (c *Client) FindRange(ctx context.Context, id, field, from, to string) (*api.TableResponse, error) {
	req := c.client.R().SetContext(ctx).SetPathParam("id", id).
		SetQueryParams(map[string]string{"field": field, "from": from, "to": to})
	return find(req)
}

func find(req *resty.Request) (*api.TableResponse, error) {
	table, err := call[api.TableResponse](req, http.MethodGet, fileEndpoint+"/records")
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// Raw downloads the re-encoded file.
func (c *Client) Raw(ctx context.Context, id string) ([]byte, error) {
	req := c.client.R().SetContext(ctx).SetPathParam("id", id)
	return download(req, fileEndpoint+"/raw")
}

// Export downloads the file rendered in format (csv, sql, json or parquet).
func (c *Client) Export(ctx context.Context, id, format string) ([]byte, error) {
	req := c.client.R().SetContext(ctx).SetPathParam("id", id).SetQueryParam("format", format)
	return download(req, fileEndpoint+"/export")
}

// SetField changes one value. field is a column index or name; value is
// parsed by the server for the column's kind.
func (c *Client) SetField(ctx context.Context, id string, record int, field, value string) (*api.SetFieldResponse, error) {
	req := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"id":     id,
			"record": strconv.Itoa(record),
			"field":  field,
		}).
		SetBody(api.SetFieldRequest{Value: value})
	resp, err := call[api.SetFieldResponse](req, http.MethodPatch, fieldEndpoint)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes a stored file.
func (c *Client) Delete(ctx context.Context, id string) error {
	req := c.client.R().SetContext(ctx).SetPathParam("id", id)
	_, err := call[map[string]string](req, http.MethodDelete, fileEndpoint)
	return err
}

// Builds lists the schema builds known for table.
func (c *Client) Builds(ctx context.Context, table string) ([]string, error) {
	req := c.client.R().SetContext(ctx).SetPathParam("table", table)
	resp, err := call[api.BuildsResponse](req, http.MethodGet, buildsEndpoint)
	if err != nil {
		return nil, err
	}
	return resp.Builds, nil
}

func call[T any](req *resty.Request, method, url string) (T, error) {
	var zero T
	var env envelope[T]

	resp, err := req.SetResult(&env).SetError(&env).Execute(method, url)
	if err != nil {
		return zero, err
	}
	if resp.IsError() || !env.Success {
		return zero, &StatusError{Code: resp.StatusCode(), Message: env.Error}
	}
	return env.Data, nil
}

func download(req *resty.Request, url string) ([]byte, error) {
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		var env envelope[any]
		_ = json.Unmarshal(resp.Body(), &env)
		return nil, &StatusError{Code: resp.StatusCode(), Message: env.Error}
	}
	return resp.Body(), nil
}
