package main

import (
	"strings"
	"testing"
)

func testAuth(t *testing.T) (*Auth, *DB) {
	t.Helper()
	db := testDB(t)
	return NewAuth(db), db
}

func TestRegisterAndLogin(t *testing.T) {
	a, db := testAuth(t)

	id, token, err := a.Register("alice", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id <= 0 || token == "" {
		t.Fatalf("register returned id=%d token=%q", id, token)
	}

	// The stored hash must never be the raw password.
	row, _ := db.GetPlayerByUsername("alice")
	if row.PassHash == "hunter2" || row.PassHash == "" {
		t.Error("password stored without hashing")
	}

	gotID, _, err := a.Login("alice", "hunter2", "1.2.3.4")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if gotID != id {
		t.Errorf("login id = %d, want %d", gotID, id)
	}

	if _, _, err := a.Login("alice", "wrong", "1.2.3.4"); err == nil {
		t.Error("wrong password should fail")
	}
	if _, _, err := a.Login("nobody", "hunter2", "1.2.3.4"); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestRegisterValidation(t *testing.T) {
	a, _ := testAuth(t)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "x", "hunter2"},
		{"long username", strings.Repeat("a", 17), "hunter2"},
		{"bad characters", "bad name!", "hunter2"},
		{"short password", "validname", "abc"},
	}
	for _, tc := range cases {
		if _, _, err := a.Register(tc.username, tc.password); err == nil {
			t.Errorf("%s: register should fail", tc.name)
		}
	}

	if _, _, err := a.Register("dup_user", "hunter2"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.Register("dup_user", "hunter2"); err == nil {
		t.Error("duplicate username should fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a, _ := testAuth(t)

	id, token, err := a.Register("tokenuser", "hunter2")
	if err != nil {
		t.Fatal(err)
	}

	pid, username, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if pid != id || username != "tokenuser" {
		t.Errorf("claims = (%d, %q), want (%d, tokenuser)", pid, username, id)
	}

	if _, _, err := a.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token should fail")
	}
	if _, _, err := a.ValidateToken(token + "x"); err == nil {
		t.Error("tampered signature should fail")
	}
}

func TestTokenSurvivesRestart(t *testing.T) {
	db := testDB(t)

	a1 := NewAuth(db)
	id, token, err := a1.Register("persist", "hunter2")
	if err != nil {
		t.Fatal(err)
	}

	// A second Auth over the same database loads the same secret, so
	// tokens outlive the process.
	a2 := NewAuth(db)
	pid, _, err := a2.ValidateToken(token)
	if err != nil {
		t.Fatalf("token invalid after restart: %v", err)
	}
	if pid != id {
		t.Errorf("pid = %d, want %d", pid, id)
	}
}

func TestLoginRateLimit(t *testing.T) {
	a, _ := testAuth(t)
	if _, _, err := a.Register("victim", "hunter2"); err != nil {
		t.Fatal(err)
	}

	// Hammer from one address until the window closes.
	var lastErr error
	for i := 0; i < maxLoginAttempts+2; i++ {
		_, _, lastErr = a.Login("victim", "wrong", "6.6.6.6")
	}
	if lastErr == nil || !strings.Contains(lastErr.Error(), "too many") {
		t.Errorf("expected rate limit error, got %v", lastErr)
	}

	// Another address is unaffected.
	if _, _, err := a.Login("victim", "hunter2", "7.7.7.7"); err != nil {
		t.Errorf("clean address should still log in: %v", err)
	}
}

func TestGenerateGuestName(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		name := GenerateGuestName()
		if !strings.HasPrefix(name, "Guest_") || len(name) != len("Guest_")+6 {
			t.Fatalf("unexpected guest name %q", name)
		}
		if len(name) > maxNameLen {
			t.Fatalf("guest name %q exceeds the join limit", name)
		}
		seen[name] = true
	}
	if len(seen) < 40 {
		t.Error("guest names collide far too often")
	}
}
