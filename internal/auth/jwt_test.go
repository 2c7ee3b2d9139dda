package auth

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("unit-test-secret")

	token, err := GenerateToken("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Address != "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Fatalf("address = %q", claims.Address)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	InitJWT("unit-test-secret")
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	InitJWT("secret-one")
	token, err := GenerateToken("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	InitJWT("secret-two")
	_, err = ValidateToken(token)
	if err == nil {
		t.Fatal("token signed with different secret accepted")
	}
	if !strings.Contains(err.Error(), "failed to parse token") {
		t.Fatalf("unexpected error: %v", err)
	}
}
