package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubVerifier struct {
	identities map[string]*Identity
}

func (s *stubVerifier) Verify(_ context.Context, raw string) (*Identity, error) {
	if id, ok := s.identities[raw]; ok {
		return id, nil
	}
	return nil, ErrUnauthenticated
}

func TestRequire(t *testing.T) {
	mw := &Middleware{Verifier: &stubVerifier{identities: map[string]*Identity{
		"good-token": {Subject: "user-1", Email: "a@example.com"},
	}}}

	var seen *Identity
	var handlerCalls int
	handler := mw.Require(func(w http.ResponseWriter, r *http.Request) {
		handlerCalls++
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"two segment token", "Bearer aaaa.bbbb", http.StatusUnauthorized},
		{"unknown token", "Bearer aaaa.bbbb.cccc", http.StatusUnauthorized},
		{"valid token", "Bearer good-token", http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		handler(rec, req)
		if rec.Code != tc.wantStatus {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.wantStatus)
		}
	}

	if handlerCalls != 1 {
		t.Fatalf("handler ran %d times, want once (only for the valid token)", handlerCalls)
	}
	if seen == nil || seen.Subject != "user-1" {
		t.Fatalf("identity not propagated: %+v", seen)
	}
}

func TestFromContextMissing(t *testing.T) {
	if id, ok := FromContext(context.Background()); ok || id != nil {
		t.Fatalf("FromContext on empty context = %+v, %v", id, ok)
	}
}
