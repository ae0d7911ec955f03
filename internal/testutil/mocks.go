package testutil

import (
	"context"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockViewCache implements ports.ViewCache for testing.
type MockViewCache struct {
	mock.Mock
}

func (m *MockViewCache) GetAllowed(ctx context.Context, kind domain.ObjectKind, groups []string) ([]string, bool, error) {
	args := m.Called(kind, groups)
	var ids []string
	if v := args.Get(0); v != nil {
		ids = v.([]string)
	}
	return ids, args.Bool(1), args.Error(2)
}

func (m *MockViewCache) SetAllowed(ctx context.Context, kind domain.ObjectKind, groups []string, ids []string) error {
	args := m.Called(kind, groups, ids)
	return args.Error(0)
}

func (m *MockViewCache) Invalidate(ctx context.Context, kind domain.ObjectKind) error {
	args := m.Called(kind)
	return args.Error(0)
}

// MockAPIKeyStore implements ports.APIKeyStore for testing.
type MockAPIKeyStore struct {
	mock.Mock
}

func (m *MockAPIKeyStore) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockAPIKeyStore) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	args := m.Called(keyHash)
	var key *domain.APIKey
	if v := args.Get(0); v != nil {
		key = v.(*domain.APIKey)
	}
	return key, args.Error(1)
}

func (m *MockAPIKeyStore) ListAPIKeys(ctx context.Context) ([]domain.APIKey, error) {
	args := m.Called()
	var keys []domain.APIKey
	if v := args.Get(0); v != nil {
		keys = v.([]domain.APIKey)
	}
	return keys, args.Error(1)
}

func (m *MockAPIKeyStore) DeleteAPIKey(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}
