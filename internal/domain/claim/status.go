package claim

// Status represents a claim's position in the approval lifecycle
type Status string

const (
	StatusPending             Status = "Pending"
	StatusUnderReview         Status = "Under Review"
	StatusRevisionRequested   Status = "Revision Requested"
	StatusCoordinatorApproved Status = "Coordinator Approved"
	StatusApproved            Status = "Approved"
	StatusRejected            Status = "Rejected"
)

var validStatuses = map[Status]bool{
	StatusPending:             true,
	StatusUnderReview:         true,
	StatusRevisionRequested:   true,
	StatusCoordinatorApproved: true,
	StatusApproved:            true,
	StatusRejected:            true,
}

var terminalStatuses = map[Status]bool{
	StatusApproved: true,
	StatusRejected: true,
}

// editableStatuses are the statuses in which a lecturer may still attach
// or remove supporting documents
var editableStatuses = map[Status]bool{
	StatusPending:           true,
	StatusUnderReview:       true,
	StatusRevisionRequested: true,
}

// IsTerminal returns true if no further transitions are allowed out of the status
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsEditable returns true if supporting documents may still be modified
func (s Status) IsEditable() bool {
	return editableStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a member of the closed enumeration
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// ParseStatus converts a stored string into a Status, rejecting anything
// outside the enumeration
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", invalidf("unknown claim status %q", s)
	}
	return status, nil
}
