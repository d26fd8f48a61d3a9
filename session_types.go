package evote

// PrincipalKind tells which kind of principal holds the session
type PrincipalKind uint8

const (
	// PrincipalNone is used when no session is held
	PrincipalNone PrincipalKind = iota

	// PrincipalVoter is an enrolled student allowed to cast one ballot
	PrincipalVoter

	// PrincipalAdmin is an administrator managing candidates, voter rolls and tallies
	PrincipalAdmin
)

// String return the tag persisted by the session store
func (k PrincipalKind) String() string {
	switch k {
	case PrincipalVoter:
		return "voter"
	case PrincipalAdmin:
		return "admin"
	}
	return "none"
}

// parsePrincipalKind is the reverse of String
func parsePrincipalKind(tag string) PrincipalKind {
	switch tag {
	case "voter":
		return PrincipalVoter
	case "admin":
		return PrincipalAdmin
	}
	return PrincipalNone
}

// Principal is the authenticated actor, either a Voter or an Administrator
type Principal interface {
	// Kind returns the principal kind
	Kind() PrincipalKind

	// PrincipalID returns the remote id of the principal
	PrincipalID() int64

	// Name returns the name to display
	Name() string
}

// Voter is an enrolled student
type Voter struct {
	// ID is the remote id
	ID int64 `json:"id"`

	// ExternalID is the student number (NIM) used to log in
	ExternalID string `json:"externalId"`

	// DisplayName is the student name
	DisplayName string `json:"displayName"`

	// Faculty of the student, optional
	Faculty string `json:"faculty,omitempty"`

	// Major of the student, optional
	Major string `json:"major,omitempty"`

	// HasVoted goes from false to true exactly once
	HasVoted bool `json:"hasVoted"`
}

func (v Voter) Kind() PrincipalKind { return PrincipalVoter }
func (v Voter) PrincipalID() int64  { return v.ID }
func (v Voter) Name() string        { return v.DisplayName }

// Administrator manages the election
type Administrator struct {
	// ID is the remote id
	ID int64 `json:"id"`

	// Username used to log in
	Username string `json:"username,omitempty"`

	// DisplayName is the administrator name
	DisplayName string `json:"displayName"`

	// Role of the administrator as returned by the remote service
	Role string `json:"role,omitempty"`
}

func (a Administrator) Kind() PrincipalKind { return PrincipalAdmin }
func (a Administrator) PrincipalID() int64  { return a.ID }
func (a Administrator) Name() string        { return a.DisplayName }

// Session is the client held authentication state
type Session struct {
	// Credential is the opaque bearer token issued at login
	Credential string

	// TokenType as returned by the remote service, usually bearer
	TokenType string

	// Principal is the authenticated actor
	Principal Principal
}

// Kind returns the kind of the session principal
func (s Session) Kind() PrincipalKind {
	if s.Principal == nil {
		return PrincipalNone
	}
	return s.Principal.Kind()
}

// Voter returns the voter record when the session belongs to a voter
func (s Session) Voter() (Voter, bool) {
	v, ok := s.Principal.(Voter)
	return v, ok
}

// Administrator returns the administrator record when the session belongs to an administrator
func (s Session) Administrator() (Administrator, bool) {
	a, ok := s.Principal.(Administrator)
	return a, ok
}

// valid reports whether the session can be persisted
func (s Session) valid() bool {
	return s.Credential != "" && s.Kind() != PrincipalNone
}
