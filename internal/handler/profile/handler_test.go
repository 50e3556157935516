package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/resort-concierge/backend/internal/model/profile"
)

func TestGetProfile(t *testing.T) {
	r := chi.NewRouter()
	New(profile.Default()).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/profile", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got profile.Profile
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if got.Placeholder != "Ask a question about our services..." {
		t.Fatalf("unexpected placeholder %q", got.Placeholder)
	}
}
