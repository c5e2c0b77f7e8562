package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/infrastructure/persistence/sqlite"
)

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new document record and sets its ID
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.SupportingDocument) error {
	query := `
		INSERT INTO supporting_documents (claim_id, file_name, stored_name, uploaded_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		doc.ClaimID,
		doc.FileName,
		doc.StoredName,
		doc.UploadedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document record", zap.Int64("claim_id", doc.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to create document record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	doc.ID = id
	return nil
}

// GetByID retrieves a document record by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*entity.SupportingDocument, error) {
	query := `
		SELECT id, claim_id, file_name, stored_name, uploaded_at
		FROM supporting_documents
		WHERE id = ?
	`

	var doc entity.SupportingDocument
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.ClaimID,
		&doc.FileName,
		&doc.StoredName,
		&doc.UploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: document %d", claim.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.Int64("document_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// GetByClaimID retrieves a claim's document records in upload order
func (r *DocumentRepository) GetByClaimID(ctx context.Context, claimID int64) ([]*entity.SupportingDocument, error) {
	query := `
		SELECT id, claim_id, file_name, stored_name, uploaded_at
		FROM supporting_documents
		WHERE claim_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to query documents", zap.Int64("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.SupportingDocument
	for rows.Next() {
		var doc entity.SupportingDocument
		err := rows.Scan(&doc.ID, &doc.ClaimID, &doc.FileName, &doc.StoredName, &doc.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Delete removes a document record
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM supporting_documents WHERE id = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete document record", zap.Int64("document_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %d", claim.ErrNotFound, id)
	}
	return nil
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
