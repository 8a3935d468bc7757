package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/httputil"
	"github.com/persistorai/vchain/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func TestRequestID_ServerGenerated(t *testing.T) {
	var seenID, seenClient string

	r := gin.New()
	r.Use(middleware.RequestID(testLogger()))
	r.GET("/test", func(c *gin.Context) {
		seenID = c.GetString(middleware.RequestIDKey)
		seenClient = c.GetString(middleware.ClientRequestIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "client-supplied")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if _, err := uuid.Parse(seenID); err != nil {
		t.Fatalf("request id %q is not a UUID", seenID)
	}
	if got := w.Header().Get(middleware.RequestIDHeader); got != seenID {
		t.Errorf("response header %q, want %q", got, seenID)
	}
	if seenClient != "client-supplied" {
		t.Errorf("client id = %q", seenClient)
	}
}

func TestRequestID_TruncatesLongClientID(t *testing.T) {
	var seenClient string

	r := gin.New()
	r.Use(middleware.RequestID(testLogger()))
	r.GET("/test", func(c *gin.Context) {
		seenClient = c.GetString(middleware.ClientRequestIDKey)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, strings.Repeat("x", 500))
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(seenClient) != 128 {
		t.Errorf("client id length = %d, want 128", len(seenClient))
	}
}

func TestMaxBodySize_RejectsDeclaredLength(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(testLogger()))
	r.Use(middleware.MaxBodySize(8))
	r.POST("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("0123456789"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}

	var body httputil.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Code != "body_too_large" || body.RequestID == "" {
		t.Errorf("unexpected error body %+v", body)
	}
}

func TestInFlight_RejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	r := gin.New()
	r.Use(middleware.InFlight(1))
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	first := httptest.NewRecorder()

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/slow", http.NoBody))
	}()

	<-entered

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/slow", http.NoBody))

	if second.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 while full, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	close(release)
	wg.Wait()

	if first.Code != http.StatusOK {
		t.Errorf("first request = %d, want 200", first.Code)
	}
}

func TestPrometheus_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Prometheus())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	r.ServeHTTP(w, req)

	expected := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "no-referrer",
		"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
		"Cross-Origin-Resource-Policy": "same-origin",
		"Cache-Control":                "no-store",
	}

	for header, want := range expected {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}
