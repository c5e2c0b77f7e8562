package claim

// Role identifies the kind of account performing an operation
type Role string

const (
	RoleLecturer    Role = "Lecturer"
	RoleCoordinator Role = "Coordinator"
	RoleManager     Role = "Manager"
	RoleHR          Role = "HR"
)

var validRoles = map[Role]bool{
	RoleLecturer:    true,
	RoleCoordinator: true,
	RoleManager:     true,
	RoleHR:          true,
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is one of the defined roles
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Actor is the identity performing an operation, passed explicitly into
// every mutating service call. ID is empty for system-originated actions.
type Actor struct {
	ID   string
	Role Role
	Name string
}

// System is the actor recorded for actions with no human originator.
var System = Actor{Name: "system"}
