package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/fieldmap"
	"github.com/skosovsky/fieldmap/testutil"
)

func newTestServer(t *testing.T, opts ...fieldmap.RegistryOption) (*httptest.Server, *fieldmap.Registry) {
	t.Helper()
	tool, err := fieldmap.NewTransformTool()
	require.NoError(t, err)
	reg := fieldmap.NewRegistry(opts...)
	reg.Register(tool)
	reg.Register(testutil.FailingTool("explode", errors.New("database unreachable")))
	srv := httptest.NewServer(New(reg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))).Handler())
	t.Cleanup(srv.Close)
	return srv, reg
}

func post(t *testing.T, url, body string, header http.Header) (*http.Response, fieldmap.Envelope) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env fieldmap.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestListTools(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tools []ToolInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tools))
	require.Len(t, tools, 2)
	assert.Equal(t, "explode", tools[0].Name)
	assert.Equal(t, fieldmap.TransformToolName, tools[1].Name)
	assert.Equal(t, fieldmap.TransformToolVersion, tools[1].Version)
	assert.Equal(t, []string{"data", "mapping"}, tools[1].Tags)
	assert.Equal(t, "object", tools[1].Parameters["type"])
}

func TestCallTool_Success(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, env := post(t, srv.URL+"/tools/transform_data",
		`{"source_data":{"first":"Ana","age":30},"field_mappings":{"name":"first","years":"age","nick":"none"}}`,
		http.Header{CallIDHeader: {"call-7"}})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "call-7", resp.Header.Get(CallIDHeader))
	assert.True(t, env.Success)
	assert.Equal(t, "call-7", env.CallID)
	assert.Equal(t, fieldmap.TransformToolName, env.Tool)
	assert.Equal(t, `{"transformed":true,"data":{"name":"Ana","years":30,"nick":null}}`, string(env.Result))
}

func TestCallTool_GeneratesCallID(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, env := post(t, srv.URL+"/tools/transform_data", `{"source_data":{},"field_mappings":{}}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := resp.Header.Get(CallIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, env.CallID)
}

func TestCallTool_Failures(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing field_mappings",
			path:       "/tools/transform_data",
			body:       `{"source_data":{}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "invalid tool input",
		},
		{
			name:       "source_data not an object",
			path:       "/tools/transform_data",
			body:       `{"source_data":[1],"field_mappings":{}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "invalid tool input",
		},
		{
			name:       "malformed JSON",
			path:       "/tools/transform_data",
			body:       `{"source_data":`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "json parse error",
		},
		{
			name:       "unknown tool",
			path:       "/tools/nope",
			body:       `{}`,
			wantStatus: http.StatusNotFound,
			wantError:  "tool not found",
		},
		{
			name:       "system error is opaque",
			path:       "/tools/explode",
			body:       `{}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal system error during tool execution",
		},
	}
	srv, _ := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := post(t, srv.URL+tt.path, tt.body, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.False(t, env.Success)
			assert.Contains(t, env.Error, tt.wantError)
			assert.NotContains(t, env.Error, "database unreachable")
			assert.Nil(t, env.Result)
		})
	}
}

func TestCallTool_BearerAuth(t *testing.T) {
	srv, _ := newTestServer(t, fieldmap.WithAuthenticator(fieldmap.StaticTokenAuthenticator("s3cret")))
	body := `{"source_data":{"a":1},"field_mappings":{"b":"a"}}`

	resp, env := post(t, srv.URL+"/tools/transform_data", body, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)

	resp, _ = post(t, srv.URL+"/tools/transform_data", body, http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/tools/transform_data", body, http.Header{"Authorization": {"Basic s3cret"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = post(t, srv.URL+"/tools/transform_data", body, http.Header{"Authorization": {"Bearer s3cret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"transformed":true,"data":{"b":1}}`, string(env.Result))
}

func TestCallTool_AfterShutdown(t *testing.T) {
	srv, reg := newTestServer(t)
	require.NoError(t, reg.Shutdown(context.Background()))
	resp, env := post(t, srv.URL+"/tools/transform_data", `{"source_data":{},"field_mappings":{}}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, env.Error, "shutting down")
}

func TestCallTool_BodyTooLarge(t *testing.T) {
	reg := testutil.NewTransformRegistry(t)
	srv := httptest.NewServer(New(reg, WithMaxBodyBytes(16)).Handler())
	defer srv.Close()

	resp, env := post(t, srv.URL+"/tools/transform_data", `{"source_data":{"a":"0123456789"},"field_mappings":{}}`, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestCallTool_BodyReadError(t *testing.T) {
	reg := testutil.NewTransformRegistry(t)
	h := New(reg).Handler()

	req := httptest.NewRequest(http.MethodPost, "/tools/transform_data", iotest.ErrReader(errors.New("connection reset")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env fieldmap.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "failed to read request body", env.Error)
}

func TestCORS(t *testing.T) {
	reg := testutil.NewTransformRegistry(t)
	srv := httptest.NewServer(New(reg, WithAllowedOrigins("https://app.example.com")).Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/tools/transform_data", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("%w: x", fieldmap.ErrToolNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad token", fieldmap.ErrUnauthorized), http.StatusUnauthorized},
		{fieldmap.ErrShutdown, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: %w", fieldmap.ErrTimeout, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{&fieldmap.ClientError{Reason: "bad"}, http.StatusUnprocessableEntity},
		{&fieldmap.SystemError{Err: errors.New("x")}, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}

func TestBearerCredentials(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	_, ok := bearerCredentials(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Bearer abc")
	creds, ok := bearerCredentials(r)
	require.True(t, ok)
	assert.Equal(t, fieldmap.Credentials{Scheme: "Bearer", Token: "abc"}, creds)

	r.Header.Set("Authorization", "bearer xyz")
	creds, ok = bearerCredentials(r)
	require.True(t, ok, "scheme is case-insensitive")
	assert.Equal(t, "xyz", creds.Token)

	r.Header.Set("Authorization", "Basic s3cret")
	_, ok = bearerCredentials(r)
	assert.False(t, ok, "non-bearer schemes are ignored")

	r.Header.Set("Authorization", "garbage")
	_, ok = bearerCredentials(r)
	assert.False(t, ok)
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	reg := testutil.NewTransformRegistry(t)
	srv := New(reg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, addr, time.Second) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)

	res := reg.Execute(context.Background(), fieldmap.ToolCall{ToolName: fieldmap.TransformToolName, Args: []byte(`{}`)})
	require.ErrorIs(t, res.Error, fieldmap.ErrShutdown)
	http.DefaultClient.CloseIdleConnections()
}
