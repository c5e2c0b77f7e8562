package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// MaxDocumentSize is the hard cap on an uploaded supporting document
const MaxDocumentSize = 5 * 1024 * 1024

// MaxClaimHours bounds a single monthly claim
var MaxClaimHours = decimal.NewFromInt(200)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".xlsx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// TransitionResult reports the outcome of one claim in a bulk operation
type TransitionResult struct {
	ClaimID int64
	Err     error
}

// ClaimCounts is the dashboard summary of claim volumes
type ClaimCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Total    int `json:"total"`
}

// ClaimDetail is a claim with its documents and audit timeline
type ClaimDetail struct {
	Claim     *entity.Claim                `json:"claim"`
	Documents []*entity.SupportingDocument `json:"documents"`
	Timeline  []entity.TimelineItem        `json:"timeline"`
}

// ClaimService manages the claim lifecycle: submission, review transitions,
// supporting documents and resubmission. Every mutation and its audit entry
// commit in one transaction.
type ClaimService interface {
	Submit(ctx context.Context, actor claim.Actor, lecturerID int64, hours decimal.Decimal, notes string) (*entity.Claim, error)
	Resubmit(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) (*entity.Claim, error)

	ApplyTransition(ctx context.Context, actor claim.Actor, claimID int64, action claim.Action, reason string) (*entity.Claim, error)
	BulkApplyTransition(ctx context.Context, actor claim.Actor, claimIDs []int64, action claim.Action, reason string) []TransitionResult

	UploadDocument(ctx context.Context, actor claim.Actor, claimID int64, fileName string, content []byte) (*entity.SupportingDocument, error)
	DeleteDocument(ctx context.Context, actor claim.Actor, actingLecturerID, documentID int64) error
	VerifyDocument(ctx context.Context, actor claim.Actor, documentID int64, valid bool, notes string) error
	ReadDocument(ctx context.Context, actor claim.Actor, actingLecturerID, documentID int64) (*entity.SupportingDocument, []byte, error)

	GetClaim(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) (*ClaimDetail, error)
	ListByLecturer(ctx context.Context, lecturerID int64) ([]*entity.Claim, error)
	ListByStatus(ctx context.Context, status claim.Status) ([]*entity.Claim, error)
	ListAll(ctx context.Context) ([]*entity.Claim, error)
	TimelineFor(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) ([]entity.TimelineItem, error)
	RecentActivity(ctx context.Context, limit int) ([]*entity.AuditEntry, error)
	Counts(ctx context.Context) (ClaimCounts, error)
}

type claimServiceImpl struct {
	claimRepo    port.ClaimRepository
	documentRepo port.DocumentRepository
	auditRepo    port.AuditRepository
	lecturerRepo port.LecturerRepository
	files        port.FileStore
	txManager    port.TransactionManager
	clock        port.Clock
	notifier     DecisionNotifier
	logger       Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	claimRepo port.ClaimRepository,
	documentRepo port.DocumentRepository,
	auditRepo port.AuditRepository,
	lecturerRepo port.LecturerRepository,
	files port.FileStore,
	txManager port.TransactionManager,
	clock port.Clock,
	notifier DecisionNotifier,
	logger Logger,
) ClaimService {
	return &claimServiceImpl{
		claimRepo:    claimRepo,
		documentRepo: documentRepo,
		auditRepo:    auditRepo,
		lecturerRepo: lecturerRepo,
		files:        files,
		txManager:    txManager,
		clock:        clock,
		notifier:     notifier,
		logger:       logger,
	}
}

// Submit creates a new Pending claim. The amount is computed once from the
// lecturer's current hourly rate and never recomputed afterwards.
func (s *claimServiceImpl) Submit(ctx context.Context, actor claim.Actor, lecturerID int64, hours decimal.Decimal, notes string) (*entity.Claim, error) {
	if hours.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: hours worked must be positive", claim.ErrValidation)
	}
	if hours.GreaterThan(MaxClaimHours) {
		return nil, fmt.Errorf("%w: hours worked may not exceed %s", claim.ErrValidation, MaxClaimHours)
	}

	lecturer, err := s.lecturerRepo.GetByID(ctx, lecturerID)
	if err != nil {
		s.logger.Error("Failed to resolve lecturer", "error", err, "lecturer_id", lecturerID)
		return nil, err
	}

	now := s.clock.Now()
	c := &entity.Claim{
		LecturerID:     lecturerID,
		HoursWorked:    hours,
		Amount:         hours.Mul(lecturer.HourlyRate),
		Status:         claim.StatusPending,
		SubmissionDate: now,
		Notes:          notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.Create(txCtx, c); err != nil {
			return fmt.Errorf("create claim: %w", err)
		}
		entry := s.newEntry(c.ID, actor, event.KindSubmitted, "Claim Submitted")
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to submit claim", "error", err, "lecturer_id", lecturerID)
		return nil, err
	}

	s.logger.Info("Claim submitted", "claim_id", c.ID, "lecturer_id", lecturerID, "amount", c.Amount.String())
	return c, nil
}

// Resubmit creates a new Pending claim copying the hours, amount and
// document records of a rejected claim owned by the acting lecturer.
func (s *claimServiceImpl) Resubmit(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) (*entity.Claim, error) {
	original, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if original.LecturerID != actingLecturerID {
		return nil, fmt.Errorf("%w: claim %d does not belong to lecturer %d", claim.ErrForbidden, claimID, actingLecturerID)
	}
	if original.Status != claim.StatusRejected {
		return nil, fmt.Errorf("%w: only a Rejected claim can be resubmitted (claim is %s)", claim.ErrValidation, original.Status)
	}

	documents, err := s.documentRepo.GetByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	copy := &entity.Claim{
		LecturerID:     original.LecturerID,
		HoursWorked:    original.HoursWorked,
		Amount:         original.Amount,
		Status:         claim.StatusPending,
		SubmissionDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Each document is duplicated under its own stored name so the rejected
	// claim's files survive edits to the new claim
	clones := make([]*entity.SupportingDocument, 0, len(documents))
	for _, doc := range documents {
		content, err := s.files.Read(ctx, doc.StoredName)
		if err != nil {
			s.discardStored(ctx, clones)
			s.logger.Error("Failed to read stored file", "error", err, "stored_name", doc.StoredName)
			return nil, fmt.Errorf("%w: %v", claim.ErrStorage, err)
		}
		storedName := uuid.New().String() + strings.ToLower(filepath.Ext(doc.StoredName))
		if err := s.files.Save(ctx, storedName, content); err != nil {
			s.discardStored(ctx, clones)
			s.logger.Error("Failed to copy stored file", "error", err, "stored_name", doc.StoredName)
			return nil, fmt.Errorf("%w: %v", claim.ErrStorage, err)
		}
		clones = append(clones, &entity.SupportingDocument{
			FileName:   doc.FileName,
			StoredName: storedName,
			UploadedAt: doc.UploadedAt,
		})
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.Create(txCtx, copy); err != nil {
			return fmt.Errorf("create claim: %w", err)
		}
		for _, clone := range clones {
			clone.ClaimID = copy.ID
			if err := s.documentRepo.Create(txCtx, clone); err != nil {
				return fmt.Errorf("copy document record: %w", err)
			}
		}
		entry := s.newEntry(copy.ID, actor, event.KindResubmitted,
			fmt.Sprintf("Claim resubmitted from claim #%d", original.ID))
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discardStored(ctx, clones)
		s.logger.Error("Failed to resubmit claim", "error", err, "claim_id", claimID)
		return nil, err
	}

	s.logger.Info("Claim resubmitted", "original_id", original.ID, "claim_id", copy.ID)
	return copy, nil
}

// ApplyTransition is the single shared review operation: it resolves the
// transition table for (actor role, action, current status), applies the
// status change with a compare-and-swap, and appends the audit entry, all
// within one transaction. A claim that moved concurrently surfaces
// claim.ErrConflict and leaves no audit entry behind.
func (s *claimServiceImpl) ApplyTransition(ctx context.Context, actor claim.Actor, claimID int64, action claim.Action, reason string) (*entity.Claim, error) {
	reason = strings.TrimSpace(reason)
	if action.RequiresReason() && reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to %s", claim.ErrValidation, action)
	}

	c, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	from := c.Status
	to, err := claim.Next(actor.Role, action, from)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.UpdateStatus(txCtx, claimID, from, to, now); err != nil {
			return err
		}

		if to == claim.StatusApproved {
			if err := s.claimRepo.SetApprovalDate(txCtx, claimID, now); err != nil {
				return fmt.Errorf("set approval date: %w", err)
			}
		}
		if note := transitionNote(action, reason); note != "" {
			if err := s.claimRepo.AppendNotes(txCtx, claimID, note, now); err != nil {
				return fmt.Errorf("append notes: %w", err)
			}
		}

		entry := s.newEntry(claimID, actor, event.KindStatusChanged, transitionMessage(action, reason))
		entry.FromStatus = &from
		entry.ToStatus = &to
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to apply transition", "error", err, "claim_id", claimID, "action", action.String())
		return nil, err
	}

	c.Status = to
	if to == claim.StatusApproved {
		c.ApprovalDate = &now
	}
	if note := transitionNote(action, reason); note != "" {
		c.Notes += note
	}

	s.logger.Info("Claim transitioned",
		"claim_id", claimID, "from", from.String(), "to", to.String(), "actor", actor.ID)

	if s.notifier != nil {
		if err := s.notifier.NotifyDecision(ctx, c, action, reason); err != nil {
			// Notification failure never rolls back a committed transition
			s.logger.Error("Failed to notify lecturer", "error", err, "claim_id", claimID)
		}
	}
	return c, nil
}

// BulkApplyTransition applies the transition to each claim independently
// and atomically. Partial success is expected; results are reported per id.
func (s *claimServiceImpl) BulkApplyTransition(ctx context.Context, actor claim.Actor, claimIDs []int64, action claim.Action, reason string) []TransitionResult {
	results := make([]TransitionResult, 0, len(claimIDs))
	for _, id := range claimIDs {
		_, err := s.ApplyTransition(ctx, actor, id, action, reason)
		results = append(results, TransitionResult{ClaimID: id, Err: err})
	}
	return results
}

// UploadDocument validates and stores a supporting document. The file lands
// on disk under an opaque generated name; the original filename is kept for
// display only.
func (s *claimServiceImpl) UploadDocument(ctx context.Context, actor claim.Actor, claimID int64, fileName string, content []byte) (*entity.SupportingDocument, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: file is empty", claim.ErrValidation)
	}
	if len(content) > MaxDocumentSize {
		return nil, fmt.Errorf("%w: file exceeds the %d MiB limit", claim.ErrValidation, MaxDocumentSize/(1024*1024))
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: file type %q is not allowed", claim.ErrValidation, ext)
	}

	c, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !c.Status.IsEditable() {
		return nil, fmt.Errorf("%w: documents cannot be added to a claim in %s state", claim.ErrValidation, c.Status)
	}

	storedName := uuid.New().String() + ext
	if err := s.files.Save(ctx, storedName, content); err != nil {
		s.logger.Error("Failed to store document", "error", err, "claim_id", claimID)
		return nil, fmt.Errorf("%w: %v", claim.ErrStorage, err)
	}

	doc := &entity.SupportingDocument{
		ClaimID:    claimID,
		FileName:   fileName,
		StoredName: storedName,
		UploadedAt: s.clock.Now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.documentRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create document record: %w", err)
		}
		entry := s.newEntry(claimID, actor, event.KindDocumentUploaded,
			fmt.Sprintf("Document Uploaded: %s", fileName))
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		// Compensate the already-written file so a failed record leaves nothing behind
		if delErr := s.files.Delete(ctx, storedName); delErr != nil {
			s.logger.Error("Failed to remove orphaned file", "error", delErr, "stored_name", storedName)
		}
		s.logger.Error("Failed to record document", "error", err, "claim_id", claimID)
		return nil, err
	}

	s.logger.Info("Document uploaded", "claim_id", claimID, "document_id", doc.ID, "file_name", fileName)
	return doc, nil
}

// DeleteDocument removes a document record and its stored file. Only the
// lecturer owning the claim may delete.
func (s *claimServiceImpl) DeleteDocument(ctx context.Context, actor claim.Actor, actingLecturerID, documentID int64) error {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	c, err := s.claimRepo.GetByID(ctx, doc.ClaimID)
	if err != nil {
		return err
	}
	if c.LecturerID != actingLecturerID {
		return fmt.Errorf("%w: document %d does not belong to lecturer %d", claim.ErrForbidden, documentID, actingLecturerID)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.documentRepo.Delete(txCtx, documentID); err != nil {
			return fmt.Errorf("delete document record: %w", err)
		}
		entry := s.newEntry(doc.ClaimID, actor, event.KindDocumentDeleted,
			fmt.Sprintf("Document Deleted: %s", doc.FileName))
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to delete document", "error", err, "document_id", documentID)
		return err
	}

	if err := s.files.Delete(ctx, doc.StoredName); err != nil {
		s.logger.Error("Failed to remove stored file", "error", err, "stored_name", doc.StoredName)
	}

	s.logger.Info("Document deleted", "claim_id", doc.ClaimID, "document_id", documentID)
	return nil
}

// VerifyDocument records a coordinator's verdict on a single document as an
// audit event. The document record itself is untouched.
func (s *claimServiceImpl) VerifyDocument(ctx context.Context, actor claim.Actor, documentID int64, valid bool, notes string) error {
	if actor.Role != claim.RoleCoordinator {
		return fmt.Errorf("%w: only a coordinator may verify documents", claim.ErrForbidden)
	}

	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	kind := event.KindDocumentVerified
	message := fmt.Sprintf("Document Verified: %s", doc.FileName)
	if !valid {
		kind = event.KindDocumentRejected
		message = fmt.Sprintf("Document Rejected: %s", doc.FileName)
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		message += fmt.Sprintf(" - Notes: %s", notes)
	}

	entry := s.newEntry(doc.ClaimID, actor, kind, message)
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to record document verification", "error", err, "document_id", documentID)
		return err
	}

	s.logger.Info("Document verified", "document_id", documentID, "valid", valid)
	return nil
}

// ReadDocument returns a document record with its stored content. Lecturers
// may only read documents on their own claims; reviewer roles see all.
func (s *claimServiceImpl) ReadDocument(ctx context.Context, actor claim.Actor, actingLecturerID, documentID int64) (*entity.SupportingDocument, []byte, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.claimRepo.GetByID(ctx, doc.ClaimID)
	if err != nil {
		return nil, nil, err
	}
	if err := viewGuard(actor, actingLecturerID, c); err != nil {
		return nil, nil, err
	}

	content, err := s.files.Read(ctx, doc.StoredName)
	if err != nil {
		s.logger.Error("Failed to read stored file", "error", err, "stored_name", doc.StoredName)
		return nil, nil, fmt.Errorf("%w: %v", claim.ErrStorage, err)
	}
	return doc, content, nil
}

// GetClaim returns a claim with its documents and timeline
func (s *claimServiceImpl) GetClaim(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) (*ClaimDetail, error) {
	c, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := viewGuard(actor, actingLecturerID, c); err != nil {
		return nil, err
	}
	documents, err := s.documentRepo.GetByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	timeline, err := s.timeline(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return &ClaimDetail{Claim: c, Documents: documents, Timeline: timeline}, nil
}

// ListByLecturer returns a lecturer's claims, newest first
func (s *claimServiceImpl) ListByLecturer(ctx context.Context, lecturerID int64) ([]*entity.Claim, error) {
	return s.claimRepo.ListByLecturer(ctx, lecturerID)
}

// ListByStatus returns claims in the given status, newest first
func (s *claimServiceImpl) ListByStatus(ctx context.Context, status claim.Status) ([]*entity.Claim, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown claim status %q", claim.ErrValidation, status)
	}
	return s.claimRepo.ListByStatus(ctx, status)
}

// ListAll returns every claim, newest first
func (s *claimServiceImpl) ListAll(ctx context.Context) ([]*entity.Claim, error) {
	return s.claimRepo.ListAll(ctx)
}

// TimelineFor reconstructs a claim's history from its audit entries in
// insertion order. The same ownership rule as GetClaim applies.
func (s *claimServiceImpl) TimelineFor(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) ([]entity.TimelineItem, error) {
	c, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := viewGuard(actor, actingLecturerID, c); err != nil {
		return nil, err
	}
	return s.timeline(ctx, claimID)
}

func (s *claimServiceImpl) timeline(ctx context.Context, claimID int64) ([]entity.TimelineItem, error) {
	entries, err := s.auditRepo.GetByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	timeline := make([]entity.TimelineItem, 0, len(entries))
	for _, entry := range entries {
		actor := entry.ActorName
		if actor == "" {
			actor = "system"
		}
		timeline = append(timeline, entity.TimelineItem{
			Timestamp: entry.Timestamp,
			Actor:     actor,
			Message:   entry.Message,
		})
	}
	return timeline, nil
}

// RecentActivity returns the latest audit entries across all claims for the
// dashboard feed
func (s *claimServiceImpl) RecentActivity(ctx context.Context, limit int) ([]*entity.AuditEntry, error) {
	return s.auditRepo.GetRecent(ctx, limit)
}

// Counts returns the dashboard claim counters
func (s *claimServiceImpl) Counts(ctx context.Context) (ClaimCounts, error) {
	pending, err := s.claimRepo.CountByStatus(ctx, claim.StatusPending)
	if err != nil {
		return ClaimCounts{}, err
	}
	approved, err := s.claimRepo.CountByStatus(ctx, claim.StatusApproved)
	if err != nil {
		return ClaimCounts{}, err
	}
	total, err := s.claimRepo.CountAll(ctx)
	if err != nil {
		return ClaimCounts{}, err
	}
	return ClaimCounts{Pending: pending, Approved: approved, Total: total}, nil
}

// discardStored removes files written ahead of a transaction that did not
// commit
func (s *claimServiceImpl) discardStored(ctx context.Context, docs []*entity.SupportingDocument) {
	for _, doc := range docs {
		if err := s.files.Delete(ctx, doc.StoredName); err != nil {
			s.logger.Error("Failed to remove orphaned file", "error", err, "stored_name", doc.StoredName)
		}
	}
}

// viewGuard rejects a lecturer reading another lecturer's claim. Reviewer
// roles see every claim.
func viewGuard(actor claim.Actor, actingLecturerID int64, c *entity.Claim) error {
	if actor.Role == claim.RoleLecturer && c.LecturerID != actingLecturerID {
		return fmt.Errorf("%w: claim %d does not belong to lecturer %d", claim.ErrForbidden, c.ID, actingLecturerID)
	}
	return nil
}

func (s *claimServiceImpl) newEntry(claimID int64, actor claim.Actor, kind event.Kind, message string) *entity.AuditEntry {
	return &entity.AuditEntry{
		ClaimID:   claimID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Kind:      kind,
		Message:   message,
		Timestamp: s.clock.Now(),
	}
}

// transitionMessage is the human-readable audit text for a review action
func transitionMessage(action claim.Action, reason string) string {
	switch action {
	case claim.ActionSetUnderReview:
		return "Claim marked as Under Review"
	case claim.ActionForwardToManager:
		return "Claim forwarded to Manager"
	case claim.ActionRequestRevision:
		return fmt.Sprintf("Revision requested: %s", reason)
	case claim.ActionApprove:
		return "Claim Approved"
	case claim.ActionReject:
		return fmt.Sprintf("Claim Rejected: %s", reason)
	default:
		return action.String()
	}
}

// transitionNote is the text appended to the claim's notes, empty when the
// action carries no reason
func transitionNote(action claim.Action, reason string) string {
	switch action {
	case claim.ActionRequestRevision:
		return fmt.Sprintf("\n[Revision Required]: %s", reason)
	case claim.ActionReject:
		return fmt.Sprintf("\nRejection Reason: %s", reason)
	default:
		return ""
	}
}
