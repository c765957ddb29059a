package identity

import (
	"testing"

	"github.com/golang-jwt/jwt"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return s
}

func TestUserIDFromBearerPrefersSub(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-42", "id": "other"})

	got, err := UserIDFromBearer(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "user-42" {
		t.Fatalf("user id = %q, want user-42", got)
	}
}

func TestUserIDFromBearerFallsBackToUserID(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"userId": "64f1a2b3c4d5e6f708192a3b", "email": "a@b.vn"})

	got, err := UserIDFromBearer(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "64f1a2b3c4d5e6f708192a3b" {
		t.Fatalf("user id = %q", got)
	}
}

func TestUserIDFromBearerRejectsGarbage(t *testing.T) {
	if _, err := UserIDFromBearer("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestUserIDFromBearerRejectsMissingClaim(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"email": "a@b.vn"})

	if _, err := UserIDFromBearer(token); err == nil {
		t.Fatal("expected error when no user id claim is present")
	}
}
