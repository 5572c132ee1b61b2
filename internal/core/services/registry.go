package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"model-registry/internal/core/domain"
	"model-registry/internal/core/ports/output"
)

// RegistryService orchestrates the blob store and the metadata index to give
// artifacts their store/get/delete lifecycle with content deduplication.
//
// Dedup policy: storing a payload whose content already exists in the same
// (tenant, collection) scope links a new metadata entry to the existing blob
// and reports deduped=true. Bytes are never written twice.
type RegistryService struct {
	artifacts ports.ArtifactRepository
	blobs     ports.BlobStore

	// writes collapses concurrent uploads of identical content in-process;
	// the blob store's atomic publish is the cross-process guard.
	writes singleflight.Group
}

func NewRegistryService(artifacts ports.ArtifactRepository, blobs ports.BlobStore) *RegistryService {
	return &RegistryService{artifacts: artifacts, blobs: blobs}
}

// contentKey shards the fingerprint into a two-character fan-out directory,
// scoped under the tenant and collection so dedup never crosses scopes.
func contentKey(tenant, collection, fingerprint string) string {
	return tenant + "/" + collection + "/" + fingerprint[:2] + "/" + fingerprint[2:]
}

// Store spools src to disk while fingerprinting it, makes the bytes durable,
// then publishes the metadata entry. Metadata is the visibility gate: an
// abandoned upload leaves at worst unreferenced bytes, never a readable
// artifact. Returns the stored artifact and whether the content was deduped.
func (s *RegistryService) Store(ctx context.Context, tenant, collection string, meta domain.ArtifactMetadata, src io.Reader) (*domain.Artifact, bool, error) {
	if err := validateScope(tenant, collection); err != nil {
		return nil, false, err
	}

	spool, err := os.CreateTemp("", "registry-upload-*")
	if err != nil {
		return nil, false, fmt.Errorf("%w: create spool file: %w", domain.ErrStorage, err)
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(spool, hasher), src)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read content source: %w", domain.ErrStorage, err)
	}
	fingerprint := hex.EncodeToString(hasher.Sum(nil))
	key := contentKey(tenant, collection, fingerprint)

	exists, err := s.blobs.Has(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: check blob %s: %w", domain.ErrStorage, fingerprint, err)
	}
	if !exists {
		// Put is idempotent, so every caller may attempt it; singleflight
		// just spares duplicate writes when identical uploads race in-process.
		_, err, _ = s.writes.Do(key, func() (interface{}, error) {
			if _, err := spool.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
			_, err := s.blobs.Put(ctx, key, spool)
			return nil, err
		})
		if err != nil {
			return nil, false, fmt.Errorf("%w: put blob %s: %w", domain.ErrStorage, fingerprint, err)
		}
	}

	artifact := &domain.Artifact{
		ID:         uuid.New(),
		Tenant:     tenant,
		Collection: collection,
		Metadata:   meta,
		ContentRef: fingerprint,
		SizeBytes:  size,
		CreatedAt:  time.Now().UTC(),
	}

	firstRef, err := s.artifacts.LinkContent(ctx, artifact)
	if err != nil {
		return nil, false, fmt.Errorf("%w: link metadata: %w", domain.ErrStorage, err)
	}

	if exists && firstRef {
		// The existence check raced a last-reference delete: the bytes we
		// skipped writing were removed before our link landed as a first
		// reference. Re-publish from the spool.
		if _, err := spool.Seek(0, io.SeekStart); err != nil {
			return nil, false, fmt.Errorf("%w: rewind spool: %w", domain.ErrStorage, err)
		}
		if _, err := s.blobs.Put(ctx, key, spool); err != nil {
			return nil, false, fmt.Errorf("%w: restore blob %s: %w", domain.ErrStorage, fingerprint, err)
		}
	}

	log.WithFields(log.Fields{
		"tenant":     tenant,
		"collection": collection,
		"model_id":   artifact.ID,
		"size_bytes": size,
		"deduped":    !firstRef,
	}).Info("artifact stored")

	return artifact, !firstRef, nil
}

// Get resolves an artifact by identifier. Non-mutating. The search operation
// shares this contract; the HTTP adapter exposes both routes over it.
func (s *RegistryService) Get(ctx context.Context, tenant, collection string, id uuid.UUID) (*domain.Artifact, error) {
	if err := validateScope(tenant, collection); err != nil {
		return nil, err
	}
	return s.artifacts.GetByID(ctx, tenant, collection, id)
}

// Open returns the artifact plus a reader over its content.
func (s *RegistryService) Open(ctx context.Context, tenant, collection string, id uuid.UUID) (*domain.Artifact, io.ReadCloser, error) {
	artifact, err := s.Get(ctx, tenant, collection, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, contentKey(tenant, collection, artifact.ContentRef))
	if err != nil {
		// Metadata without bytes is an index/store inconsistency, not a
		// caller-visible NotFound.
		return nil, nil, fmt.Errorf("%w: open blob %s: %w", domain.ErrStorage, artifact.ContentRef, err)
	}
	return artifact, rc, nil
}

// Delete removes the metadata entry and, when the last reference to the
// content is dropped, the physical bytes. Deleting an unknown identifier is
// domain.ErrArtifactNotFound, never a silent success.
func (s *RegistryService) Delete(ctx context.Context, tenant, collection string, id uuid.UUID) error {
	if err := validateScope(tenant, collection); err != nil {
		return err
	}

	contentRef, lastRef, err := s.artifacts.DeleteByID(ctx, tenant, collection, id)
	if err != nil {
		if errors.Is(err, domain.ErrArtifactNotFound) {
			return err
		}
		return fmt.Errorf("%w: delete metadata: %w", domain.ErrStorage, err)
	}

	if lastRef {
		key := contentKey(tenant, collection, contentRef)
		if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrBlobNotFound) {
			// The metadata entry is already gone, so the delete succeeded from
			// the caller's view; leftover bytes are unreachable orphans.
			log.WithError(err).WithFields(log.Fields{
				"tenant":      tenant,
				"collection":  collection,
				"content_ref": contentRef,
			}).Error("orphaned blob left behind after metadata delete")
		}
	}

	log.WithFields(log.Fields{
		"tenant":     tenant,
		"collection": collection,
		"model_id":   id,
		"last_ref":   lastRef,
	}).Info("artifact deleted")

	return nil
}

func validateScope(tenant, collection string) error {
	if err := domain.ValidateName(tenant); err != nil {
		return err
	}
	return domain.ValidateName(collection)
}
