package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/infrastructure/persistence/sqlite"
)

const claimColumns = `id, lecturer_id, hours_worked, amount, status, submission_date,
	approval_date, notes, is_paid, payment_date, payment_batch_id, created_at, updated_at`

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new claim and sets its ID
func (r *ClaimRepository) Create(ctx context.Context, c *entity.Claim) error {
	query := `
		INSERT INTO claims (
			lecturer_id, hours_worked, amount, status, submission_date,
			notes, is_paid, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		c.LecturerID,
		c.HoursWorked.String(),
		c.Amount.String(),
		c.Status.String(),
		c.SubmissionDate,
		c.Notes,
		c.IsPaid,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = ?`

	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id)
	c, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: claim %d", claim.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get claim", zap.Int64("claim_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return c, nil
}

// GetByIDs retrieves the claims matching the given IDs. Missing IDs are
// simply absent from the result.
func (r *ClaimRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id IN (` + placeholders + `) ORDER BY id`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.queryClaims(ctx, query, args...)
}

// ListByLecturer retrieves a lecturer's claims, newest first
func (r *ClaimRepository) ListByLecturer(ctx context.Context, lecturerID int64) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE lecturer_id = ? ORDER BY submission_date DESC, id DESC`
	return r.queryClaims(ctx, query, lecturerID)
}

// ListByStatus retrieves claims in a status, newest first
func (r *ClaimRepository) ListByStatus(ctx context.Context, status claim.Status) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE status = ? ORDER BY submission_date DESC, id DESC`
	return r.queryClaims(ctx, query, status.String())
}

// ListAll retrieves every claim, newest first
func (r *ClaimRepository) ListAll(ctx context.Context) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims ORDER BY submission_date DESC, id DESC`
	return r.queryClaims(ctx, query)
}

// ListBetween retrieves claims submitted within [start, end]
func (r *ClaimRepository) ListBetween(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims
		WHERE submission_date >= ? AND submission_date <= ?
		ORDER BY submission_date ASC, id ASC`
	return r.queryClaims(ctx, query, start, end)
}

// ListPayable retrieves approved, unpaid claims submitted within [start, end]
func (r *ClaimRepository) ListPayable(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims
		WHERE status = ? AND is_paid = 0
		AND submission_date >= ? AND submission_date <= ?
		ORDER BY submission_date ASC, id ASC`
	return r.queryClaims(ctx, query, claim.StatusApproved.String(), start, end)
}

// ListByBatchID retrieves the claims paid by a batch
func (r *ClaimRepository) ListByBatchID(ctx context.Context, batchID int64) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE payment_batch_id = ? ORDER BY id`
	return r.queryClaims(ctx, query, batchID)
}

// UpdateStatus moves a claim from one status to another. The WHERE clause
// on the old status makes it a compare-and-swap: zero affected rows means
// the claim moved concurrently and the caller gets claim.ErrConflict.
func (r *ClaimRepository) UpdateStatus(ctx context.Context, id int64, from, to claim.Status, now time.Time) error {
	query := `UPDATE claims SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, to.String(), now, id, from.String())
	if err != nil {
		r.logger.Error("Failed to update claim status", zap.Int64("claim_id", id), zap.Error(err))
		return fmt.Errorf("failed to update claim status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: claim %d is no longer in %s", claim.ErrConflict, id, from)
	}
	return nil
}

// SetApprovalDate stamps the approval timestamp
func (r *ClaimRepository) SetApprovalDate(ctx context.Context, id int64, t time.Time) error {
	query := `UPDATE claims SET approval_date = ?, updated_at = ? WHERE id = ?`

	if err := r.execOne(ctx, query, id, t, t, id); err != nil {
		r.logger.Error("Failed to set approval date", zap.Int64("claim_id", id), zap.Error(err))
		return err
	}
	return nil
}

// AppendNotes appends text to the claim's notes
func (r *ClaimRepository) AppendNotes(ctx context.Context, id int64, text string, now time.Time) error {
	query := `UPDATE claims SET notes = notes || ?, updated_at = ? WHERE id = ?`

	if err := r.execOne(ctx, query, id, text, now, id); err != nil {
		r.logger.Error("Failed to append notes", zap.Int64("claim_id", id), zap.Error(err))
		return err
	}
	return nil
}

// MarkPaid stamps a claim as paid by a batch
func (r *ClaimRepository) MarkPaid(ctx context.Context, id int64, batchID int64, paidAt time.Time) error {
	query := `UPDATE claims SET is_paid = 1, payment_date = ?, payment_batch_id = ?, updated_at = ?
		WHERE id = ? AND is_paid = 0`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, paidAt, batchID, paidAt, id)
	if err != nil {
		r.logger.Error("Failed to mark claim paid", zap.Int64("claim_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark claim paid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: claim %d is already paid", claim.ErrConflict, id)
	}
	return nil
}

// CountByStatus counts claims in a status
func (r *ClaimRepository) CountByStatus(ctx context.Context, status claim.Status) (int, error) {
	query := `SELECT COUNT(*) FROM claims WHERE status = ?`

	var count int
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, status.String()).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count claims by status", zap.String("status", status.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}
	return count, nil
}

// CountAll counts all claims
func (r *ClaimRepository) CountAll(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM claims`

	var count int
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count claims", zap.Error(err))
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}
	return count, nil
}

func (r *ClaimRepository) queryClaims(ctx context.Context, query string, args ...interface{}) ([]*entity.Claim, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query claims", zap.Error(err))
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var claims []*entity.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (r *ClaimRepository) execOne(ctx context.Context, query string, id int64, args ...interface{}) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update claim: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: claim %d", claim.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(row rowScanner) (*entity.Claim, error) {
	var (
		c          entity.Claim
		hours      string
		amount     string
		status     string
		approvedAt sql.NullTime
		paidAt     sql.NullTime
		batchID    sql.NullInt64
	)
	err := row.Scan(
		&c.ID,
		&c.LecturerID,
		&hours,
		&amount,
		&status,
		&c.SubmissionDate,
		&approvedAt,
		&c.Notes,
		&c.IsPaid,
		&paidAt,
		&batchID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.HoursWorked, err = decimal.NewFromString(hours); err != nil {
		return nil, fmt.Errorf("invalid hours_worked %q: %w", hours, err)
	}
	if c.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	c.Status = claim.Status(status)
	if approvedAt.Valid {
		c.ApprovalDate = &approvedAt.Time
	}
	if paidAt.Valid {
		c.PaymentDate = &paidAt.Time
	}
	if batchID.Valid {
		c.PaymentBatchID = &batchID.Int64
	}
	return &c, nil
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
