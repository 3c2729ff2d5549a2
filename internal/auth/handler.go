package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"iiot-monitor/internal/observability/metrics"
)

const defaultSessionTTL = 12 * time.Hour

// Credential is a configured user.
type Credential struct {
	Subject  string
	Password string
	Role     Role
	TenantID string
}

// StaticAuthenticator verifies credentials against a fixed user set.
type StaticAuthenticator struct {
	users map[string]Credential
}

// NewStaticAuthenticator builds an authenticator from credentials.
func NewStaticAuthenticator(creds ...Credential) *StaticAuthenticator {
	users := make(map[string]Credential, len(creds))
	for _, cred := range creds {
		if cred.Subject == "" {
			continue
		}
		users[cred.Subject] = cred
	}
	return &StaticAuthenticator{users: users}
}

// ParseCredentials parses "subject:password:role[,...]" as used by the
// AUTH_USERS environment variable.
func ParseCredentials(raw string) []Credential {
	var creds []Credential
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			continue
		}
		role, ok := NormalizeRole(parts[2])
		if !ok {
			continue
		}
		creds = append(creds, Credential{Subject: parts[0], Password: parts[1], Role: role})
	}
	return creds
}

// Authenticate checks the password and returns the matching credential.
func (a *StaticAuthenticator) Authenticate(subject, password string) (Credential, bool) {
	if a == nil {
		return Credential{}, false
	}
	cred, ok := a.users[subject]
	if !ok {
		// Compare against a dummy to keep timing uniform.
		subtle.ConstantTimeCompare([]byte(password), []byte("missing-user"))
		return Credential{}, false
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(cred.Password)) != 1 {
		return Credential{}, false
	}
	return cred, true
}

// SessionHandler serves login and session introspection.
type SessionHandler struct {
	secret        []byte
	authenticator *StaticAuthenticator
	logger        *log.Logger
	ttl           time.Duration
	now           func() time.Time
}

// SessionOption configures the session handler.
type SessionOption func(*SessionHandler)

// WithSessionTTL overrides the token lifetime.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(h *SessionHandler) {
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// WithSessionClock overrides the clock.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(h *SessionHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(secret []byte, authenticator *StaticAuthenticator, logger *log.Logger, opts ...SessionOption) (*SessionHandler, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	handler := &SessionHandler{
		secret:        secret,
		authenticator: authenticator,
		logger:        logger,
		ttl:           defaultSessionTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

// ServeHTTP handles /api/session.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleLogin(w, r)
	case http.MethodGet:
		h.handleCurrent(w, r)
	case http.MethodDelete:
		// Logout is a pure transition to the anonymous session; the
		// token simply stops being presented.
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *SessionHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondSessionError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cred, ok := h.authenticator.Authenticate(req.Username, req.Password)
	if !ok {
		metrics.IncSessionLogin(metrics.ResultError)
		respondSessionError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	session := Login(h.now(), cred.Subject, cred.TenantID, cred.Role, h.ttl)
	token, err := SignJWT(session, h.secret)
	if err != nil {
		h.logf("sign session token: %v", err)
		metrics.IncSessionLogin(metrics.ResultError)
		respondSessionError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	metrics.IncSessionLogin(metrics.ResultSuccess)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{Token: token, Session: session})
}

func (h *SessionHandler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	session, err := ParseJWT(extractBearer(r), h.secret)
	if err != nil {
		respondSessionError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(session)
}

func (h *SessionHandler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

func respondSessionError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
