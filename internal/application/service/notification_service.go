package service

import (
	"context"
	"fmt"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
)

// DecisionNotifier informs a lecturer about a review decision on their claim.
// Failures are reported to the caller but must never undo the decision.
type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, c *entity.Claim, action claim.Action, reason string) error
}

type notificationServiceImpl struct {
	lecturerRepo port.LecturerRepository
	mailer       port.Mailer
	logger       Logger
}

// NewNotificationService creates a DecisionNotifier backed by email
func NewNotificationService(lecturerRepo port.LecturerRepository, mailer port.Mailer, logger Logger) DecisionNotifier {
	return &notificationServiceImpl{
		lecturerRepo: lecturerRepo,
		mailer:       mailer,
		logger:       logger,
	}
}

// NotifyDecision emails the claim's lecturer about approvals, rejections and
// revision requests. Intermediate moves are silent.
func (s *notificationServiceImpl) NotifyDecision(ctx context.Context, c *entity.Claim, action claim.Action, reason string) error {
	subject, body := decisionEmail(c, action, reason)
	if subject == "" {
		return nil
	}

	lecturer, err := s.lecturerRepo.GetByID(ctx, c.LecturerID)
	if err != nil {
		return fmt.Errorf("resolve lecturer: %w", err)
	}
	if lecturer.Email == "" {
		s.logger.Info("Lecturer has no email address, skipping notification", "lecturer_id", lecturer.ID)
		return nil
	}

	if err := s.mailer.Send(lecturer.Email, subject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("Decision notification sent", "claim_id", c.ID, "action", action.String())
	return nil
}

func decisionEmail(c *entity.Claim, action claim.Action, reason string) (subject, body string) {
	switch action {
	case claim.ActionApprove:
		subject = fmt.Sprintf("Claim #%d Approved", c.ID)
		body = fmt.Sprintf(
			"Your claim for %s hours (%s) has been approved and will be included in the next payment run.",
			c.HoursWorked.String(), c.Amount.StringFixed(2))
	case claim.ActionReject:
		subject = fmt.Sprintf("Claim #%d Rejected", c.ID)
		body = fmt.Sprintf(
			"Your claim for %s hours has been rejected.\nReason: %s\n\nYou may correct and resubmit the claim.",
			c.HoursWorked.String(), reason)
	case claim.ActionRequestRevision:
		subject = fmt.Sprintf("Claim #%d Requires Revision", c.ID)
		body = fmt.Sprintf(
			"Your claim for %s hours requires changes before review can continue.\nRequested: %s",
			c.HoursWorked.String(), reason)
	}
	return subject, body
}
