package event

// Kind identifies the type of audit event recorded against a claim.
// Aggregation logic matches on the kind, never on message text.
type Kind string

const (
	KindSubmitted        Kind = "claim.submitted"
	KindStatusChanged    Kind = "claim.status_changed"
	KindResubmitted      Kind = "claim.resubmitted"
	KindDocumentUploaded Kind = "document.uploaded"
	KindDocumentVerified Kind = "document.verified"
	KindDocumentRejected Kind = "document.rejected"
	KindDocumentDeleted  Kind = "document.deleted"
	KindBatchGenerated   Kind = "payment.batch_generated"
)

// String returns the string representation of the event kind
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the event kind is one of the defined constants
func (k Kind) IsValid() bool {
	switch k {
	case KindSubmitted,
		KindStatusChanged,
		KindResubmitted,
		KindDocumentUploaded,
		KindDocumentVerified,
		KindDocumentRejected,
		KindDocumentDeleted,
		KindBatchGenerated:
		return true
	default:
		return false
	}
}
