package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
)

func gzipBody(t *testing.T, s string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return &buf
}

func TestGzipRequestMiddlewareDecompresses(t *testing.T) {
	logger, _ := test.NewNullLogger()
	e := NewEcho(nil, logger)
	var got string
	e.POST("/echo", func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		got = string(b)
		if c.Request().Header.Get(echo.HeaderContentEncoding) != "" {
			t.Errorf("content encoding header should be removed")
		}
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", gzipBody(t, `{"input":"hola"}`))
	req.Header.Set(echo.HeaderContentEncoding, "identity, GZIP")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 got %d", rec.Code)
	}
	if got != `{"input":"hola"}` {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestGzipRequestMiddlewareRejectsInvalidPayload(t *testing.T) {
	logger, _ := test.NewNullLogger()
	e := NewEcho(nil, logger)
	e.POST("/echo", func(c echo.Context) error {
		t.Errorf("handler must not run")
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("not gzip"))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestHasGzipEncoding(t *testing.T) {
	cases := map[string]bool{
		"":              false,
		"gzip":          true,
		" deflate,gzip": true,
		"br":            false,
		"x-gzip":        false,
	}
	for header, want := range cases {
		if got := hasGzipEncoding(header); got != want {
			t.Fatalf("hasGzipEncoding(%q) = %v, want %v", header, got, want)
		}
	}
}

func TestCORSAllowsIdempotencyKey(t *testing.T) {
	logger, _ := test.NewNullLogger()
	e := NewEcho([]string{"https://app.example.com"}, logger)
	e.POST("/api/tasks", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	req.Header.Set(echo.HeaderAccessControlRequestHeaders, headerIdempotencyKey)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://app.example.com" {
		t.Fatalf("unexpected allow origin: %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowHeaders); !strings.Contains(got, headerIdempotencyKey) {
		t.Fatalf("expected %s in allowed headers, got %q", headerIdempotencyKey, got)
	}
}
