package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// RunHTTPServer starts a gin engine with the registered routes on a local
// listener that is closed when the test ends.
func RunHTTPServer(t *testing.T, opts ...ServerOption) *Client {
	gin.SetMode(gin.TestMode)

	o := serverOpts{}
	for _, opt := range opts {
		opt(&o)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	for _, m := range o.middleware {
		r.Use(m)
	}
	for _, register := range o.registrants {
		register(r)
	}

	serv := httptest.NewServer(r)
	t.Cleanup(serv.Close)

	return &Client{
		t:       t,
		baseURL: serv.URL,
		http:    serv.Client(),
	}
}

type serverOpts struct {
	middleware  []gin.HandlerFunc
	registrants []func(gin.IRouter)
}

type ServerOption func(o *serverOpts)

func WithRoutes(register func(r gin.IRouter)) ServerOption {
	return func(o *serverOpts) {
		o.registrants = append(o.registrants, register)
	}
}

func WithMiddleware(m ...gin.HandlerFunc) ServerOption {
	return func(o *serverOpts) {
		o.middleware = append(o.middleware, m...)
	}
}

// Client issues JSON requests against a test server.
type Client struct {
	t       *testing.T
	baseURL string
	http    *http.Client
	token   string
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	copied := *c
	copied.token = token
	return &copied
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(t *testing.T, v any) {
	require.NoError(t, json.Unmarshal(r.Body, v), string(r.Body))
}

// Detail returns the "detail" field of an error body.
func (r *Response) Detail(t *testing.T) string {
	var body struct {
		Detail string `json:"detail"`
	}
	r.Decode(t, &body)
	return body.Detail
}

func (c *Client) Get(path string) *Response {
	return c.Do(http.MethodGet, path, nil)
}

func (c *Client) Post(path string, body any) *Response {
	return c.Do(http.MethodPost, path, body)
}

func (c *Client) Put(path string, body any) *Response {
	return c.Do(http.MethodPut, path, body)
}

func (c *Client) Delete(path string, body any) *Response {
	return c.Do(http.MethodDelete, path, body)
}

func (c *Client) Do(method, path string, body any) *Response {
	var reader io.Reader
	if body != nil {
		switch typed := body.(type) {
		case string:
			reader = bytes.NewBufferString(typed)
		default:
			b, err := json.Marshal(body)
			require.NoError(c.t, err)
			reader = bytes.NewBuffer(b)
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req)
}

// File is a multipart file part.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Upload sends a multipart form with the given fields and optional file.
func (c *Client) Upload(path string, fields map[string]string, file *File) *Response {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(c.t, w.WriteField(k, v))
	}

	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+file.Field+`"; filename="`+file.Filename+`"`)
		h.Set("Content-Type", file.ContentType)

		part, err := w.CreatePart(h)
		require.NoError(c.t, err)
		_, err = part.Write(file.Data)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, w.Close())

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.send(req)
}

func (c *Client) send(req *http.Request) *Response {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       b,
	}
}

// Rejection is the detail of a moderation rejection.
type Rejection struct {
	Message   string   `json:"message"`
	Reason    string   `json:"reason"`
	FlaggedBy []string `json:"flagged_by"`
}

// Rejection decodes the detail of a moderation rejection body.
func (r *Response) Rejection(t *testing.T) Rejection {
	var body struct {
		Detail Rejection `json:"detail"`
	}
	r.Decode(t, &body)
	return body.Detail
}
