package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/domain/event"
	"github.com/cmcs/claims-api/internal/infrastructure/persistence/sqlite"
)

// AuditRepository implements port.AuditRepository. The table is append-only.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an audit entry
func (r *AuditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (
			claim_id, actor_id, actor_name, kind, from_status, to_status,
			message, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var from, to interface{}
	if entry.FromStatus != nil {
		from = entry.FromStatus.String()
	}
	if entry.ToStatus != nil {
		to = entry.ToStatus.String()
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		entry.ClaimID,
		entry.ActorID,
		entry.ActorName,
		entry.Kind.String(),
		from,
		to,
		entry.Message,
		entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create audit entry", zap.Int64("claim_id", entry.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByClaimID retrieves a claim's audit trail in insertion order
func (r *AuditRepository) GetByClaimID(ctx context.Context, claimID int64) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, claim_id, actor_id, actor_name, kind, from_status, to_status, message, timestamp
		FROM audit_entries
		WHERE claim_id = ?
		ORDER BY id ASC
	`
	return r.queryEntries(ctx, query, claimID)
}

// GetRecent retrieves the newest entries across all claims
func (r *AuditRepository) GetRecent(ctx context.Context, limit int) ([]*entity.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, claim_id, actor_id, actor_name, kind, from_status, to_status, message, timestamp
		FROM audit_entries
		ORDER BY id DESC
		LIMIT ?
	`
	return r.queryEntries(ctx, query, limit)
}

func (r *AuditRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*entity.AuditEntry, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query audit entries", zap.Error(err))
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var (
			entry entity.AuditEntry
			kind  string
			from  sql.NullString
			to    sql.NullString
		)
		err := rows.Scan(
			&entry.ID,
			&entry.ClaimID,
			&entry.ActorID,
			&entry.ActorName,
			&kind,
			&from,
			&to,
			&entry.Message,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		entry.Kind = event.Kind(kind)
		if from.Valid {
			s := claim.Status(from.String)
			entry.FromStatus = &s
		}
		if to.Valid {
			s := claim.Status(to.String)
			entry.ToStatus = &s
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
