// Package session holds the state of one logged-in user for the lifetime of a request.
package session

type Session struct {
	LoggedIn bool   `json:"logged_in"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// New is the session created by a successful login.
func New(name, email string) Session {
	return Session{LoggedIn: true, Name: name, Email: email}
}

// Anonymous is the cleared session.
func Anonymous() Session {
	return Session{}
}

// Clear resets s to the anonymous state.
func (s *Session) Clear() {
	*s = Anonymous()
}
