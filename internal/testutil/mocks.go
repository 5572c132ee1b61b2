package testutil

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"model-registry/internal/core/domain"
)

// MockArtifactRepo is a mock of ArtifactRepository.
type MockArtifactRepo struct {
	mock.Mock
}

func (m *MockArtifactRepo) LinkContent(ctx context.Context, artifact *domain.Artifact) (bool, error) {
	args := m.Called(ctx, artifact)
	return args.Bool(0), args.Error(1)
}

func (m *MockArtifactRepo) GetByID(ctx context.Context, tenant, collection string, id uuid.UUID) (*domain.Artifact, error) {
	args := m.Called(ctx, tenant, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) DeleteByID(ctx context.Context, tenant, collection string, id uuid.UUID) (string, bool, error) {
	args := m.Called(ctx, tenant, collection, id)
	return args.String(0), args.Bool(1), args.Error(2)
}

// MockBlobStore is a mock of BlobStore.
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	args := m.Called(ctx, key, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockBlobStore) Has(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockUserProvisioner is a mock of UserProvisioner.
type MockUserProvisioner struct {
	mock.Mock
}

func (m *MockUserProvisioner) CreateUser(ctx context.Context, tenant, username, password string, role domain.Role) error {
	args := m.Called(ctx, tenant, username, password, role)
	return args.Error(0)
}

func (m *MockUserProvisioner) DeleteUser(ctx context.Context, tenant, username string) error {
	args := m.Called(ctx, tenant, username)
	return args.Error(0)
}
