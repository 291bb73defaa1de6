package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRequestLoggerMiddleware(t *testing.T) {
	buf := captureLogs(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.GET("/api/tasks/:id", okHandler)
	router.GET("/error", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
	})
	router.GET("/server-error", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
	})

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		logLevel       string
	}{
		{"success request", "/api/tasks/t1", http.StatusOK, "level=INFO"},
		{"client error", "/error", http.StatusBadRequest, "level=WARN"},
		{"server error", "/server-error", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			logOutput := buf.String()
			for _, want := range []string{"request completed", tt.path, tt.logLevel, "request_id="} {
				if !strings.Contains(logOutput, want) {
					t.Errorf("Expected %q in log, got %q", want, logOutput)
				}
			}
		})
	}
}

func TestRequestLoggerRouteAndQuery(t *testing.T) {
	buf := captureLogs(t)

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/api/tasks/:id", okHandler)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tasks/t1?page=2", nil))

	logOutput := buf.String()
	if !strings.Contains(logOutput, "query=") || !strings.Contains(logOutput, "page=2") {
		t.Errorf("Expected query in log, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "route=/api/tasks/:id") {
		t.Errorf("Expected route template in log, got %q", logOutput)
	}
}
