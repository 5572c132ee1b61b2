package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"model-registry/internal/core/domain"
	"model-registry/internal/testutil"
)

var testMeta = domain.ArtifactMetadata{
	ModelArchitecture: "transformer",
	ModelVersion:      1.2,
	ProjectName:       "nlp-platform",
}

func keyFor(tenant, collection, payload string) string {
	sum := sha256.Sum256([]byte(payload))
	fp := hex.EncodeToString(sum[:])
	return tenant + "/" + collection + "/" + fp[:2] + "/" + fp[2:]
}

func TestRegistryStore_FreshContent(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	key := keyFor("acme", "llm", "weights")
	blobs.On("Has", mock.Anything, key).Return(false, nil)
	blobs.On("Put", mock.Anything, key, mock.Anything).Return(int64(7), nil)
	repo.On("LinkContent", mock.Anything, mock.AnythingOfType("*domain.Artifact")).Return(true, nil)

	artifact, deduped, err := svc.Store(context.Background(), "acme", "llm", testMeta, strings.NewReader("weights"))
	require.NoError(t, err)
	assert.False(t, deduped)
	assert.NotEqual(t, uuid.Nil, artifact.ID)
	assert.Equal(t, "acme", artifact.Tenant)
	assert.Equal(t, "llm", artifact.Collection)
	assert.Equal(t, testMeta, artifact.Metadata)
	assert.Equal(t, int64(len("weights")), artifact.SizeBytes)
	blobs.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestRegistryStore_DedupLinksNewMetadata(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	blobs.On("Has", mock.Anything, mock.Anything).Return(false, nil).Once()
	blobs.On("Has", mock.Anything, mock.Anything).Return(true, nil).Once()
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	repo.On("LinkContent", mock.Anything, mock.AnythingOfType("*domain.Artifact")).Return(true, nil).Once()
	repo.On("LinkContent", mock.Anything, mock.AnythingOfType("*domain.Artifact")).Return(false, nil).Once()

	first, deduped, err := svc.Store(context.Background(), "acme", "llm", testMeta, strings.NewReader("weights"))
	require.NoError(t, err)
	assert.False(t, deduped)

	otherMeta := testMeta
	otherMeta.ModelVersion = 1.3
	second, deduped, err := svc.Store(context.Background(), "acme", "llm", otherMeta, strings.NewReader("weights"))
	require.NoError(t, err)
	assert.True(t, deduped)

	// Same content, two distinct metadata entries, one physical write.
	assert.Equal(t, first.ContentRef, second.ContentRef)
	assert.NotEqual(t, first.ID, second.ID)
	repo.AssertNumberOfCalls(t, "LinkContent", 2)
	blobs.AssertNumberOfCalls(t, "Put", 1)
}

func TestRegistryStore_ExistingContentSkipsWrite(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	key := keyFor("acme", "llm", "weights")
	blobs.On("Has", mock.Anything, key).Return(true, nil)
	repo.On("LinkContent", mock.Anything, mock.AnythingOfType("*domain.Artifact")).Return(false, nil)

	_, deduped, err := svc.Store(context.Background(), "acme", "llm", testMeta, strings.NewReader("weights"))
	require.NoError(t, err)
	assert.True(t, deduped)
	blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistryStore_ExistenceCheckFault(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	blobs.On("Has", mock.Anything, mock.Anything).Return(false, errors.New("backend down"))

	_, _, err := svc.Store(context.Background(), "acme", "llm", testMeta, strings.NewReader("weights"))
	assert.ErrorIs(t, err, domain.ErrStorage)
	blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "LinkContent", mock.Anything, mock.Anything)
}

// A delete of the last reference can remove the bytes between the existence
// check and the link; the link then lands as a first reference and the
// content must be written again.
func TestRegistryStore_RestoresBlobAfterRacingDelete(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	key := keyFor("acme", "llm", "weights")
	blobs.On("Has", mock.Anything, key).Return(true, nil)
	repo.On("LinkContent", mock.Anything, mock.AnythingOfType("*domain.Artifact")).Return(true, nil)
	blobs.On("Put", mock.Anything, key, mock.Anything).Return(int64(7), nil)

	_, deduped, err := svc.Store(context.Background(), "acme", "llm", testMeta, strings.NewReader("weights"))
	require.NoError(t, err)
	assert.False(t, deduped)
	blobs.AssertCalled(t, "Put", mock.Anything, key, mock.Anything)
}

func TestRegistryStore_ZeroByteContent(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	key := keyFor("acme", "llm", "")
	blobs.On("Has", mock.Anything, key).Return(false, nil)
	blobs.On("Put", mock.Anything, key, mock.Anything).Return(int64(0), nil)
	repo.On("LinkContent", mock.Anything, mock.AnythingOfType("*domain.Artifact")).Return(true, nil)

	artifact, deduped, err := svc.Store(context.Background(), "acme", "llm", testMeta, bytes.NewReader(nil))
	require.NoError(t, err)
	assert.False(t, deduped)
	assert.Zero(t, artifact.SizeBytes)
	blobs.AssertExpectations(t)
}

func TestRegistryStore_BlobFault(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	blobs.On("Has", mock.Anything, mock.Anything).Return(false, nil)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))

	_, _, err := svc.Store(context.Background(), "acme", "llm", testMeta, strings.NewReader("weights"))
	assert.ErrorIs(t, err, domain.ErrStorage)
	repo.AssertNotCalled(t, "LinkContent", mock.Anything, mock.Anything)
}

func TestRegistryStore_InvalidScope(t *testing.T) {
	svc := NewRegistryService(new(testutil.MockArtifactRepo), new(testutil.MockBlobStore))

	_, _, err := svc.Store(context.Background(), "../escape", "llm", testMeta, strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, _, err = svc.Store(context.Background(), "acme", "", testMeta, strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestRegistryGet(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	svc := NewRegistryService(repo, new(testutil.MockBlobStore))

	id := uuid.New()
	expected := &domain.Artifact{ID: id, Tenant: "acme", Collection: "llm", Metadata: testMeta}
	repo.On("GetByID", mock.Anything, "acme", "llm", id).Return(expected, nil)

	got, err := svc.Get(context.Background(), "acme", "llm", id)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestRegistryGet_NotFound(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	svc := NewRegistryService(repo, new(testutil.MockBlobStore))

	id := uuid.New()
	repo.On("GetByID", mock.Anything, "acme", "llm", id).Return(nil, domain.ErrArtifactNotFound)

	_, err := svc.Get(context.Background(), "acme", "llm", id)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestRegistryOpen(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	id := uuid.New()
	sum := sha256.Sum256([]byte("weights"))
	fp := hex.EncodeToString(sum[:])
	artifact := &domain.Artifact{ID: id, Tenant: "acme", Collection: "llm", ContentRef: fp}

	repo.On("GetByID", mock.Anything, "acme", "llm", id).Return(artifact, nil)
	blobs.On("Open", mock.Anything, keyFor("acme", "llm", "weights")).
		Return(io.NopCloser(strings.NewReader("weights")), nil)

	got, rc, err := svc.Open(context.Background(), "acme", "llm", id)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, artifact, got)

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(content))
}

func TestRegistryDelete_SharedContentKeepsBlob(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	id := uuid.New()
	repo.On("DeleteByID", mock.Anything, "acme", "llm", id).Return("ffeedd", false, nil)

	require.NoError(t, svc.Delete(context.Background(), "acme", "llm", id))
	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRegistryDelete_LastReferenceRemovesBlob(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	blobs := new(testutil.MockBlobStore)
	svc := NewRegistryService(repo, blobs)

	id := uuid.New()
	repo.On("DeleteByID", mock.Anything, "acme", "llm", id).Return("ffeedd00", true, nil)
	blobs.On("Delete", mock.Anything, "acme/llm/ff/eedd00").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "acme", "llm", id))
	blobs.AssertExpectations(t)
}

func TestRegistryDelete_NotFound(t *testing.T) {
	repo := new(testutil.MockArtifactRepo)
	svc := NewRegistryService(repo, new(testutil.MockBlobStore))

	id := uuid.New()
	repo.On("DeleteByID", mock.Anything, "acme", "llm", id).Return("", false, domain.ErrArtifactNotFound)

	err := svc.Delete(context.Background(), "acme", "llm", id)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

// fakeBlobStore counts physical writes; a put of an existing key is a skip,
// like the real content-addressed backends.
type fakeBlobStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{data: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return int64(len(b)), nil
	}
	f.data[key] = b
	f.writes++
	return int64(len(b)), nil
}

func (f *fakeBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[key]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBlobStore) Has(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return domain.ErrBlobNotFound
	}
	delete(f.data, key)
	return nil
}

// fakeArtifactRepo is an in-memory metadata index with reference counting.
type fakeArtifactRepo struct {
	mu        sync.Mutex
	artifacts map[uuid.UUID]*domain.Artifact
	refs      map[string]int
}

func newFakeArtifactRepo() *fakeArtifactRepo {
	return &fakeArtifactRepo{
		artifacts: make(map[uuid.UUID]*domain.Artifact),
		refs:      make(map[string]int),
	}
}

func (f *fakeArtifactRepo) LinkContent(_ context.Context, a *domain.Artifact) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs[a.ContentRef]++
	f.artifacts[a.ID] = a
	return f.refs[a.ContentRef] == 1, nil
}

func (f *fakeArtifactRepo) GetByID(_ context.Context, tenant, collection string, id uuid.UUID) (*domain.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.artifacts[id]
	if !ok || a.Tenant != tenant || a.Collection != collection {
		return nil, domain.ErrArtifactNotFound
	}
	return a, nil
}

func (f *fakeArtifactRepo) DeleteByID(_ context.Context, tenant, collection string, id uuid.UUID) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.artifacts[id]
	if !ok || a.Tenant != tenant || a.Collection != collection {
		return "", false, domain.ErrArtifactNotFound
	}
	delete(f.artifacts, id)
	f.refs[a.ContentRef]--
	return a.ContentRef, f.refs[a.ContentRef] == 0, nil
}

func TestRegistryStore_ConcurrentIdenticalContent(t *testing.T) {
	repo := newFakeArtifactRepo()
	blobs := newFakeBlobStore()
	svc := NewRegistryService(repo, blobs)

	payload := strings.Repeat("w", 8192)
	const callers = 8

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Store(context.Background(), "acme", "llm", testMeta, strings.NewReader(payload))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, blobs.writes, "identical concurrent stores must write bytes once")
	assert.Len(t, repo.artifacts, callers, "every successful store gets its own metadata entry")
}

func TestRegistryDelete_SharedContentLifecycle(t *testing.T) {
	repo := newFakeArtifactRepo()
	blobs := newFakeBlobStore()
	svc := NewRegistryService(repo, blobs)
	ctx := context.Background()

	first, _, err := svc.Store(ctx, "acme", "llm", testMeta, strings.NewReader("shared"))
	require.NoError(t, err)
	second, deduped, err := svc.Store(ctx, "acme", "llm", testMeta, strings.NewReader("shared"))
	require.NoError(t, err)
	require.True(t, deduped)

	// Deleting one leaves the other's content retrievable.
	require.NoError(t, svc.Delete(ctx, "acme", "llm", first.ID))
	_, rc, err := svc.Open(ctx, "acme", "llm", second.ID)
	require.NoError(t, err)
	rc.Close()

	// Deleting the second removes the physical content.
	require.NoError(t, svc.Delete(ctx, "acme", "llm", second.ID))
	has, err := blobs.Has(ctx, keyFor("acme", "llm", "shared"))
	require.NoError(t, err)
	assert.False(t, has)
}
