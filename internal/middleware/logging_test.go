package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// captureLog routes the default logger into a buffer for the test's duration.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name:   "tour page",
			method: http.MethodGet,
			path:   "/tours/9b2f",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "unpublished tour",
			method: http.MethodGet,
			path:   "/embed/tour/9b2f",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "hotspot created",
			method: http.MethodPost,
			path:   "/admin/hotspots",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:   "body without WriteHeader",
			method: http.MethodGet,
			path:   "/tours",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<h1>Tours</h1>"))
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			rr := httptest.NewRecorder()
			Logger(tt.handler).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}

			var entry struct {
				Msg    string `json:"msg"`
				Method string `json:"method"`
				Path   string `json:"path"`
				Status int    `json:"status"`
			}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line %q: %v", buf.String(), err)
			}
			if entry.Msg != "http request" || entry.Method != tt.method || entry.Path != tt.path {
				t.Errorf("log entry: got %+v", entry)
			}
			if entry.Status != tt.wantStatus {
				t.Errorf("logged status: got %d, want %d", entry.Status, tt.wantStatus)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("keeps the first status", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

		rw.WriteHeader(http.StatusSeeOther)
		rw.WriteHeader(http.StatusInternalServerError)

		if rw.statusCode != http.StatusSeeOther {
			t.Errorf("statusCode: got %d, want 303", rw.statusCode)
		}
		if !rw.written {
			t.Error("written should be true after WriteHeader")
		}
	})

	t.Run("write implies 200", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusTeapot}

		if _, err := rw.Write([]byte("{}")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if rw.statusCode != http.StatusOK || !rw.written {
			t.Errorf("after Write: status %d, written %v", rw.statusCode, rw.written)
		}
	})
}
