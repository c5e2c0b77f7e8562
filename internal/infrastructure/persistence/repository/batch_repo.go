package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/infrastructure/persistence/sqlite"
)

// BatchRepository implements port.BatchRepository
type BatchRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBatchRepository creates a new payment batch repository
func NewBatchRepository(db *sql.DB, logger *zap.Logger) port.BatchRepository {
	return &BatchRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new payment batch and sets its ID
func (r *BatchRepository) Create(ctx context.Context, batch *entity.PaymentBatch) error {
	query := `
		INSERT INTO payment_batches (batch_number, generated_at, generated_by, total_amount, total_claims)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		batch.BatchNumber,
		batch.GeneratedAt,
		batch.GeneratedBy,
		batch.TotalAmount.String(),
		batch.TotalClaims,
	)
	if err != nil {
		r.logger.Error("Failed to create payment batch", zap.String("batch_number", batch.BatchNumber), zap.Error(err))
		return fmt.Errorf("failed to create payment batch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	batch.ID = id
	return nil
}

// GetByID retrieves a payment batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id int64) (*entity.PaymentBatch, error) {
	query := `
		SELECT id, batch_number, generated_at, generated_by, total_amount, total_claims
		FROM payment_batches
		WHERE id = ?
	`

	batch, err := scanBatch(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payment batch %d", claim.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get payment batch", zap.Int64("batch_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get payment batch: %w", err)
	}
	return batch, nil
}

// List retrieves payment batches, newest first
func (r *BatchRepository) List(ctx context.Context, limit, offset int) ([]*entity.PaymentBatch, error) {
	query := `
		SELECT id, batch_number, generated_at, generated_by, total_amount, total_claims
		FROM payment_batches
		ORDER BY generated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to query payment batches", zap.Error(err))
		return nil, fmt.Errorf("failed to query payment batches: %w", err)
	}
	defer rows.Close()

	var batches []*entity.PaymentBatch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment batch: %w", err)
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

func scanBatch(row rowScanner) (*entity.PaymentBatch, error) {
	var (
		batch entity.PaymentBatch
		total string
	)
	err := row.Scan(
		&batch.ID,
		&batch.BatchNumber,
		&batch.GeneratedAt,
		&batch.GeneratedBy,
		&total,
		&batch.TotalClaims,
	)
	if err != nil {
		return nil, err
	}
	if batch.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid total_amount %q: %w", total, err)
	}
	return &batch, nil
}

// Verify interface compliance
var _ port.BatchRepository = (*BatchRepository)(nil)
