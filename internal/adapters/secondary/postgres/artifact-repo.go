package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-registry/internal/core/domain"
	"model-registry/internal/core/ports/output"
)

type artifactRepo struct {
	pool *pgxpool.Pool
}

func NewArtifactRepository(pool *pgxpool.Pool) ports.ArtifactRepository {
	return &artifactRepo{pool: pool}
}

// LinkContent runs the blob upsert and the artifact insert in one transaction.
// The ON CONFLICT increment is the atomic create-if-absent guard: two racing
// stores of identical content serialize on the blob row, one creates it and
// the other bumps the reference count.
func (r *artifactRepo) LinkContent(ctx context.Context, a *domain.Artifact) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin link tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var firstRef bool
	err = tx.QueryRow(ctx, `
		INSERT INTO blob (tenant, collection, fingerprint, size_bytes, ref_count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (tenant, collection, fingerprint)
		DO UPDATE SET ref_count = blob.ref_count + 1
		RETURNING (xmax = 0)
	`, a.Tenant, a.Collection, a.ContentRef, a.SizeBytes).Scan(&firstRef)
	if err != nil {
		return false, fmt.Errorf("upsert blob reference: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO artifact
			(id, tenant, collection, model_architecture, model_version,
			 project_name, content_ref, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.Tenant, a.Collection,
		a.Metadata.ModelArchitecture, a.Metadata.ModelVersion, a.Metadata.ProjectName,
		a.ContentRef, a.SizeBytes, a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert artifact: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit link tx: %w", err)
	}
	return firstRef, nil
}

func (r *artifactRepo) GetByID(ctx context.Context, tenant, collection string, id uuid.UUID) (*domain.Artifact, error) {
	a := &domain.Artifact{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant, collection, model_architecture, model_version,
			   project_name, content_ref, size_bytes, created_at
		FROM artifact
		WHERE tenant = $1 AND collection = $2 AND id = $3
	`, tenant, collection, id).Scan(
		&a.ID, &a.Tenant, &a.Collection,
		&a.Metadata.ModelArchitecture, &a.Metadata.ModelVersion, &a.Metadata.ProjectName,
		&a.ContentRef, &a.SizeBytes, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("get artifact by id: %w", err)
	}
	return a, nil
}

// DeleteByID removes the artifact row and decrements the content reference
// count inside one transaction. The UPDATE takes a row lock on the blob row,
// so two concurrent deletes of artifacts sharing content cannot both observe
// "last reference" nor both skip physical removal.
func (r *artifactRepo) DeleteByID(ctx context.Context, tenant, collection string, id uuid.UUID) (string, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var contentRef string
	err = tx.QueryRow(ctx, `
		DELETE FROM artifact
		WHERE tenant = $1 AND collection = $2 AND id = $3
		RETURNING content_ref
	`, tenant, collection, id).Scan(&contentRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, domain.ErrArtifactNotFound
		}
		return "", false, fmt.Errorf("delete artifact: %w", err)
	}

	var refCount int64
	err = tx.QueryRow(ctx, `
		UPDATE blob SET ref_count = ref_count - 1
		WHERE tenant = $1 AND collection = $2 AND fingerprint = $3
		RETURNING ref_count
	`, tenant, collection, contentRef).Scan(&refCount)
	if err != nil {
		return "", false, fmt.Errorf("decrement blob reference: %w", err)
	}

	lastRef := refCount == 0
	if lastRef {
		if _, err := tx.Exec(ctx, `
			DELETE FROM blob
			WHERE tenant = $1 AND collection = $2 AND fingerprint = $3 AND ref_count = 0
		`, tenant, collection, contentRef); err != nil {
			return "", false, fmt.Errorf("delete blob row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, fmt.Errorf("commit delete tx: %w", err)
	}
	return contentRef, lastRef, nil
}
