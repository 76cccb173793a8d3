package authz

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(now *time.Time) *TokenManager {
	m := NewTokenManager("secret", "", time.Hour, 10*time.Minute)
	m.Now = func() time.Time { return *now }
	return m
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	tok, exp, err := m.IssueAccessToken("abc123")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if !exp.Equal(now.Add(time.Hour)) {
		t.Fatalf("exp = %v", exp)
	}
	claims, err := m.ParseAccessToken(tok)
	if err != nil || claims.AdminID != "abc123" {
		t.Fatalf("ParseAccessToken: %+v, %v", claims, err)
	}

	now = now.Add(61 * time.Minute)
	if _, err := m.ParseAccessToken(tok); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expired token: got %v", err)
	}
}

func TestFileTokenBindsKeyAndExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	tok, err := m.IssueFileToken("abc-1.png")
	if err != nil {
		t.Fatal(err)
	}
	if c := m.VerifyFileToken(tok); c == nil || c.Key != "abc-1.png" {
		t.Fatalf("VerifyFileToken = %+v", c)
	}

	now = now.Add(10*time.Minute + time.Second)
	if c := m.VerifyFileToken(tok); c != nil {
		t.Fatalf("expired file token accepted: %+v", c)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	now := time.Now()
	m := newTestManager(&now)

	access, _, _ := m.IssueAccessToken("abc123")
	if c := m.VerifyFileToken(access); c != nil {
		t.Fatal("access token accepted as file token")
	}
	file, _ := m.IssueFileToken("k.png")
	if _, err := m.ParseAccessToken(file); err == nil {
		t.Fatal("file token accepted as access token")
	}
	if c := m.VerifyFileToken("garbage"); c != nil {
		t.Fatal("garbage accepted")
	}

	other := NewTokenManager("other", "", time.Hour, time.Minute)
	if c := other.VerifyFileToken(file); c != nil {
		t.Fatal("token signed with another secret accepted")
	}
}
