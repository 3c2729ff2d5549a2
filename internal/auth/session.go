package auth

import "time"

// Session is the explicit identity value carried through a request.
// It is immutable: Login and Logout return new values instead of
// mutating shared state.
type Session struct {
	Subject   string    `json:"subject"`
	TenantID  string    `json:"tenant_id"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Anonymous returns the zero session.
func Anonymous() Session {
	return Session{}
}

// Login produces an authenticated session for the subject.
func Login(now time.Time, subject, tenantID string, role Role, ttl time.Duration) Session {
	now = now.UTC()
	return Session{
		Subject:   subject,
		TenantID:  tenantID,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Logout transitions any session back to anonymous.
func (Session) Logout() Session {
	return Anonymous()
}

// Authenticated reports whether the session identifies a subject.
func (s Session) Authenticated() bool {
	return s.Subject != ""
}

// Valid reports whether the session is authenticated and unexpired.
func (s Session) Valid(now time.Time) bool {
	return s.Authenticated() && now.Before(s.ExpiresAt)
}
