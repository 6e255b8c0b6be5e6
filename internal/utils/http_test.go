package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		data       any
		status     int
		wantStatus int
		wantBody   string
		wantErr    bool
	}{
		{
			name:       "object",
			data:       map[string]int{"pending": 3},
			status:     http.StatusOK,
			wantStatus: http.StatusOK,
			wantBody:   `{"pending":3}`,
		},
		{
			name:       "custom status",
			data:       map[string]string{"error": "unknown account"},
			status:     http.StatusNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"unknown account"}`,
		},
		{
			name:       "nil slice",
			data:       []string(nil),
			status:     http.StatusOK,
			wantStatus: http.StatusOK,
			wantBody:   `null`,
		},
		{
			// channels cannot be marshaled to JSON
			name:       "not serializable",
			data:       make(chan int),
			status:     http.StatusOK,
			wantStatus: http.StatusInternalServerError,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			n, err := WriteJSON(w, tt.data, tt.status)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if w.Code != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if n != len(tt.wantBody) {
				t.Errorf("expected %d bytes written, got %d", len(tt.wantBody), n)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Body.String(); got != tt.wantBody {
				t.Errorf("expected body %s, got %s", tt.wantBody, got)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
				t.Errorf("expected Cache-Control 'no-store', got '%s'", cc)
			}
		})
	}
}
