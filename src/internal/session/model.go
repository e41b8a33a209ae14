package session

// State is the lifecycle state of the session state machine.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateRestoring     State = "restoring"
	StateLoggedOut     State = "logged_out"
	StateLoggedIn      State = "logged_in"
)

// Gender constants. An empty string means unset.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Profile holds the optional user profile attributes attached to a session.
type Profile struct {
	Name    string `json:"name,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Country string `json:"country,omitempty"`
}

// Empty reports whether no profile field is set.
func (p Profile) Empty() bool {
	return p.Name == "" && p.Gender == "" && p.Country == ""
}

// Session is the authenticated identity and its metadata. A session with an
// empty token is logged out; a logged-out session never carries profile data
// or a sponsor flag from a previous identity.
type Session struct {
	Token          string  `json:"-"`
	Email          string  `json:"email,omitempty"`
	Profile        Profile `json:"profile"`
	IsSponsor      bool    `json:"isSponsor"`
	TimeoutMinutes int     `json:"sessionTimeoutMinutes"`
}

// LoggedIn reports whether the session holds a credential token.
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// LoginParams is the input of Manager.Login. Empty optional fields clear the
// corresponding persisted and in-memory values rather than leaving stale data
// from a previous identity.
type LoginParams struct {
	Email   string
	Token   string
	Sponsor bool
	Profile Profile
}
