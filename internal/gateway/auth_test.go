package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	cfg := AuthConfig{
		BearerToken: "secret-token",
		BasicUser:   "admin",
		BasicPass:   "hunter2",
	}

	handler := authMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  int
	}{
		{
			name:  "no credentials",
			setup: func(_ *http.Request) {},
			want:  http.StatusUnauthorized,
		},
		{
			name: "valid bearer",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer secret-token")
			},
			want: http.StatusOK,
		},
		{
			name: "wrong bearer",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer wrong")
			},
			want: http.StatusUnauthorized,
		},
		{
			name: "valid basic",
			setup: func(r *http.Request) {
				r.SetBasicAuth("admin", "hunter2")
			},
			want: http.StatusOK,
		},
		{
			name: "wrong basic password",
			setup: func(r *http.Request) {
				r.SetBasicAuth("admin", "guessed")
			},
			want: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthConfig_IsConfigured(t *testing.T) {
	t.Parallel()

	if (AuthConfig{}).IsConfigured() {
		t.Error("empty config should not be configured")
	}
	if !(AuthConfig{BearerToken: "t"}).IsConfigured() {
		t.Error("bearer token should count as configured")
	}
	if (AuthConfig{BasicUser: "u"}).IsConfigured() {
		t.Error("user without password should not count")
	}
	if !(AuthConfig{BasicUser: "u", BasicPass: "p"}).IsConfigured() {
		t.Error("basic pair should count as configured")
	}
}
