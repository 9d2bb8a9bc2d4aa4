package session

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// StorageKey is the key the active session is persisted under.
const StorageKey = "user"

// Roles
const (
	RoleGuardian        Role = "parent"
	RoleInstructor      Role = "teacher"
	RoleAdministrator   Role = "admin"
	RoleVehicleOperator Role = "driver"
)

var (
	AllRoles = []Role{RoleGuardian, RoleInstructor, RoleAdministrator, RoleVehicleOperator}

	roleNames = map[Role]string{
		RoleGuardian:        "Guardian",
		RoleInstructor:      "Instructor",
		RoleAdministrator:   "Administrator",
		RoleVehicleOperator: "Vehicle Operator",
	}

	errUnknownRole = errors.New("unknown role")
)

// States
const (
	StateUninitialized State = iota
	StateRestoring
	StateAnonymous
	StateAuthenticated
)

type (
	Role  string
	State int

	// Session is the authenticated identity bound to a portal context.
	Session struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  Role   `json:"role"`
	}
)

func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

// DisplayName is the human readable name of the role.
func (r Role) DisplayName() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return string(r)
}

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// DeriveRole maps an email to a role. Rules are checked in order, first match wins.
func DeriveRole(email string) Role {
	email = strings.ToLower(email)
	switch {
	case strings.Contains(email, "teacher"):
		return RoleInstructor
	case strings.Contains(email, "admin"):
		return RoleAdministrator
	case strings.Contains(email, "driver"):
		return RoleVehicleOperator
	default:
		return RoleGuardian
	}
}

// DisplayName derives a display name from an email: everything before the first "@".
func DisplayName(email string) string {
	if idx := strings.Index(email, "@"); idx >= 0 {
		return email[:idx]
	}
	return email
}

// New builds the session of an authenticated email.
func New(id, email string) Session {
	email = core.CleanString(email, true /* lower */)
	return Session{
		ID:    id,
		Email: email,
		Name:  DisplayName(email),
		Role:  DeriveRole(email),
	}
}

// Person is the session as seen by the logger.
func (s Session) Person() core.Person {
	return core.Person{ID: s.ID, Username: s.Name, Email: s.Email}
}

func (s Session) marshal() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalSession(raw string) (Session, error) {
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return Session{}, err
	}
	if !sess.Role.IsValid() {
		return Session{}, errors.Wrap(errUnknownRole, string(sess.Role))
	}
	return sess, nil
}
