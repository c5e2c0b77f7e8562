package claim

import "fmt"

// Action is a review operation an actor can attempt on a claim
type Action string

const (
	ActionSetUnderReview   Action = "SET_UNDER_REVIEW"
	ActionForwardToManager Action = "FORWARD_TO_MANAGER"
	ActionRequestRevision  Action = "REQUEST_REVISION"
	ActionApprove          Action = "APPROVE"
	ActionReject           Action = "REJECT"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// RequiresReason returns true if the action must carry a non-empty reason
func (a Action) RequiresReason() bool {
	return a == ActionReject || a == ActionRequestRevision
}

// transitionRule describes one row of the transition table: which role may
// move a claim from which statuses to which target
type transitionRule struct {
	from map[Status]bool
	to   Status
}

type transitionKey struct {
	role   Role
	action Action
}

var coordinatorSources = map[Status]bool{
	StatusPending:     true,
	StatusUnderReview: true,
}

var managerSources = map[Status]bool{
	StatusCoordinatorApproved: true,
	StatusUnderReview:         true,
}

// transitionTable is the closed set of permitted transitions. Anything not
// listed here is rejected, including any move out of a terminal status.
var transitionTable = map[transitionKey]transitionRule{
	{RoleCoordinator, ActionSetUnderReview}:   {from: coordinatorSources, to: StatusUnderReview},
	{RoleCoordinator, ActionForwardToManager}: {from: coordinatorSources, to: StatusCoordinatorApproved},
	{RoleCoordinator, ActionRequestRevision}:  {from: coordinatorSources, to: StatusRevisionRequested},
	{RoleCoordinator, ActionReject}:           {from: coordinatorSources, to: StatusRejected},
	{RoleManager, ActionApprove}:              {from: managerSources, to: StatusApproved},
	{RoleManager, ActionReject}:               {from: managerSources, to: StatusRejected},
}

// Next resolves the transition table as a total function: it returns the
// target status for (role, action, from), or an error wrapping
// ErrValidation naming the violated rule.
func Next(role Role, action Action, from Status) (Status, error) {
	if !from.IsValid() {
		return "", invalidf("unknown claim status %q", from)
	}

	rule, ok := transitionTable[transitionKey{role, action}]
	if !ok {
		return "", invalidf("role %s may not perform %s", role, action)
	}

	if !rule.from[from] {
		return "", invalidf("cannot %s a claim in %s state (requires %s)",
			action, from, formatSources(rule.from))
	}

	return rule.to, nil
}

// CanTransition reports whether (role, action, from) is a permitted transition
func CanTransition(role Role, action Action, from Status) bool {
	_, err := Next(role, action, from)
	return err == nil
}

func formatSources(from map[Status]bool) string {
	// Stable ordering for error messages
	ordered := []Status{
		StatusPending,
		StatusUnderReview,
		StatusRevisionRequested,
		StatusCoordinatorApproved,
	}
	out := ""
	for _, s := range ordered {
		if !from[s] {
			continue
		}
		if out != "" {
			out += " or "
		}
		out += s.String()
	}
	if out == "" {
		return "no state"
	}
	return fmt.Sprintf("%s state", out)
}
