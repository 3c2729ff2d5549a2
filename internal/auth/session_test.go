package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginLogoutTransitions(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	session := Login(now, "alice", "plant-1", RoleOperator, time.Hour)

	if !session.Authenticated() {
		t.Fatal("expected authenticated session")
	}
	if !session.Valid(now.Add(30 * time.Minute)) {
		t.Fatal("expected session valid before expiry")
	}
	if session.Valid(now.Add(2 * time.Hour)) {
		t.Fatal("expected session invalid after expiry")
	}

	anon := session.Logout()
	if anon.Authenticated() {
		t.Fatal("expected logout to produce anonymous session")
	}
	// The original session value is untouched.
	if !session.Authenticated() {
		t.Fatal("logout must not mutate the source session")
	}
}

func TestSignParseRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now().UTC().Truncate(time.Second)
	session := Login(now, "alice", "plant-1", RoleOperator, time.Hour)

	token, err := SignJWT(session, secret)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	parsed, err := ParseJWT(token, secret)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if parsed.Subject != "alice" || parsed.Role != RoleOperator || parsed.TenantID != "plant-1" {
		t.Fatalf("unexpected session %+v", parsed)
	}
}

func TestParseCredentials(t *testing.T) {
	creds := ParseCredentials("alice:s3cret:operator, bob:pw:viewer, broken, carol:pw:king")
	if len(creds) != 2 {
		t.Fatalf("expected 2 credentials, got %d", len(creds))
	}
	if creds[0].Subject != "alice" || creds[0].Role != RoleOperator {
		t.Fatalf("unexpected credential %+v", creds[0])
	}
}

func TestSessionHandler_LoginAndCurrent(t *testing.T) {
	secret := []byte("test-secret")
	authenticator := NewStaticAuthenticator(Credential{
		Subject: "alice", Password: "s3cret", Role: RoleOperator, TenantID: "plant-1",
	})
	handler, err := NewSessionHandler(secret, authenticator, nil)
	if err != nil {
		t.Fatalf("NewSessionHandler: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "s3cret"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session", bytes.NewReader(body)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if login.Token == "" || login.Session.Role != RoleOperator {
		t.Fatalf("unexpected login response %+v", login)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var current Session
	if err := json.NewDecoder(resp.Body).Decode(&current); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if current.Subject != "alice" {
		t.Fatalf("unexpected session %+v", current)
	}
}

func TestSessionHandler_BadPassword(t *testing.T) {
	secret := []byte("test-secret")
	authenticator := NewStaticAuthenticator(Credential{Subject: "alice", Password: "s3cret", Role: RoleViewer})
	handler, err := NewSessionHandler(secret, authenticator, nil)
	if err != nil {
		t.Fatalf("NewSessionHandler: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrong"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session", bytes.NewReader(body)))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
