package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/testutil"
	"github.com/rs/zerolog"
)

func TestAuthMiddleware(t *testing.T) {
	keys := &testutil.MockAPIKeyStore{}
	middleware := AuthMiddleware(keys, zerolog.Nop())

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())
		w.Header().Set("X-Groups", strings.Join(actor.Groups, ","))
		w.Header().Set("X-Default-Group", actor.DefaultGroup)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Missing Authorization Header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/zones", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Invalid Key", func(t *testing.T) {
		rawKey := "dnsa_invalidkey"
		keys.On("GetAPIKeyByHash", HashKey(rawKey)).Return(nil, nil).Once()

		req := httptest.NewRequest("GET", "/zones", nil)
		req.Header.Set("Authorization", "Bearer "+rawKey)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Valid Key", func(t *testing.T) {
		rawKey := "dnsa_validkey"
		apiKey := &domain.APIKey{
			Groups:       []string{"ops", "web"},
			DefaultGroup: "ops",
			Active:       true,
		}
		keys.On("GetAPIKeyByHash", HashKey(rawKey)).Return(apiKey, nil).Once()

		req := httptest.NewRequest("GET", "/zones", nil)
		req.Header.Set("Authorization", "Bearer "+rawKey)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rr.Code)
		}
		if rr.Header().Get("X-Groups") != "ops,web" || rr.Header().Get("X-Default-Group") != "ops" {
			t.Errorf("actor not propagated: %v", rr.Header())
		}
	})

	t.Run("Inactive Key", func(t *testing.T) {
		rawKey := "dnsa_inactive"
		keys.On("GetAPIKeyByHash", HashKey(rawKey)).Return(&domain.APIKey{Active: false}, nil).Once()

		req := httptest.NewRequest("GET", "/zones", nil)
		req.Header.Set("Authorization", "Bearer "+rawKey)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Expired Key", func(t *testing.T) {
		rawKey := "dnsa_expired"
		past := time.Now().Add(-time.Hour)
		keys.On("GetAPIKeyByHash", HashKey(rawKey)).Return(&domain.APIKey{Active: true, ExpiresAt: &past}, nil).Once()

		req := httptest.NewRequest("GET", "/zones", nil)
		req.Header.Set("Authorization", "Bearer "+rawKey)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Store Error", func(t *testing.T) {
		rawKey := "dnsa_dberror"
		keys.On("GetAPIKeyByHash", HashKey(rawKey)).Return(nil, errors.New("db down")).Once()

		req := httptest.NewRequest("GET", "/zones", nil)
		req.Header.Set("Authorization", "Bearer "+rawKey)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rr.Code)
		}
	})

	keys.AssertExpectations(t)
}
