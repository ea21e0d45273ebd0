package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 0)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 0)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c = NewClient("http://example.test/", 0)
	assert.Equal(t, "http://example.test", c.BaseURL())
}

func TestChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, ChatRequest{Message: "hi", ThreadID: "default-thread"}, req)

		json.NewEncoder(w).Encode(map[string]string{"response": "hello!", "thread_id": "default-thread"})
	})

	resp, err := c.Chat(context.Background(), &ChatRequest{Message: "hi", ThreadID: "default-thread"})
	require.NoError(t, err)
	assert.Equal(t, "hello!", resp.Response)
}

func TestBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc.def.ghi", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"healthy"}`))
	})
	c.SetToken("abc.def.ghi")

	resp, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Status)
}

func TestVision(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vision", r.URL.Path)
		var req VisionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is it?", req.Question)
		assert.Equal(t, "data:image/png;base64,AAAA", req.ImageURL)
		w.Write([]byte(`{"response":"a cat"}`))
	})

	resp, err := c.Vision(context.Background(), &VisionRequest{
		Question: "what is it?",
		ImageURL: "data:image/png;base64,AAAA",
		ThreadID: "t",
	})
	require.NoError(t, err)
	assert.Equal(t, "a cat", resp.Response)
}

func TestPDF_Multipart(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4 fake"), 0644))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pdf", r.URL.Path)
		assert.Equal(t, "summarize", r.URL.Query().Get("query"))
		assert.Equal(t, "default-thread", r.URL.Query().Get("thread_id"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "summarize", r.FormValue("query"))
		assert.Equal(t, "default-thread", r.FormValue("thread_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "report.pdf", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "%PDF-1.4 fake", string(data))

		w.Write([]byte(`{"response":"short summary"}`))
	})

	resp, err := c.PDF(context.Background(), &PDFRequest{
		Path:     pdf,
		Query:    "summarize",
		ThreadID: "default-thread",
	})
	require.NoError(t, err)
	assert.Equal(t, "short summary", resp.Response)
}

func TestPDF_MissingFile(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)
	_, err := c.PDF(context.Background(), &PDFRequest{Path: filepath.Join(t.TempDir(), "none.pdf")})
	assert.ErrorContains(t, err, "failed to open PDF")
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{"detail string", http.StatusInternalServerError, `{"detail":"graph exploded"}`, "graph exploded"},
		{"plain body", http.StatusBadGateway, "upstream down\n", "upstream down"},
		{"empty body", http.StatusServiceUnavailable, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Chat(context.Background(), &ChatRequest{Message: "x"})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.detail, apiErr.Detail)
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Invalid credentials"}`))
			return
		}
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})

	resp, err := c.Login(context.Background(), &LoginRequest{Email: "bob@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)

	_, err = c.Login(context.Background(), &LoginRequest{Email: "bob@example.com", Password: "nope"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid credentials", apiErr.Detail)
}

func TestSignup_FallsBackToGenericMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signup", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("<html>bad request</html>"))
	})

	_, err := c.Signup(context.Background(), &SignupRequest{Username: "bob"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, AuthFailed, apiErr.Detail)
}

func TestGenerateImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-image", r.URL.Path)
		var req GenerateImageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a red fox", req.Prompt)
		w.Write([]byte(`{"response":"done","generated_image_url":"https://pollinations.ai/p/fox","thread_id":"t"}`))
	})

	resp, err := c.GenerateImage(context.Background(), &GenerateImageRequest{Prompt: "a red fox"})
	require.NoError(t, err)
	assert.Equal(t, "https://pollinations.ai/p/fox", resp.GeneratedImageURL)
}

func TestGenerateImage_ZeroSeedAndThreadQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "default-thread", r.URL.Query().Get("thread_id"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"seed":0`)
		assert.Contains(t, string(body), `"thread_id":"default-thread"`)
		w.Write([]byte(`{"response":"done","generated_image_url":"https://pollinations.ai/p/fox"}`))
	})

	_, err := c.GenerateImage(context.Background(), &GenerateImageRequest{
		Prompt:   "fox",
		Width:    1024,
		Height:   1024,
		Seed:     0,
		Model:    "flux",
		ThreadID: "default-thread",
	})
	require.NoError(t, err)
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpegbytes"))
	})

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), c.BaseURL()+"/p/fox.jpg", &buf)
	require.NoError(t, err)
	assert.EqualValues(t, 9, n)
	assert.Equal(t, "jpegbytes", buf.String())

	_, err = c.Download(context.Background(), c.BaseURL()+"/missing.jpg", &buf)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}
