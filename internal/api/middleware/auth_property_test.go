package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: a token issued by a manager validates under the same secret
// with the original claims, and never under a different secret.

func TestProperty_JWTRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	secretGen := gen.SliceOfN(16, gen.AlphaChar()).Map(func(chars []rune) string {
		return string(chars)
	})
	userIDGen := gen.UIntRange(1, 100000)
	emailGen := gen.SliceOfN(8, gen.AlphaLowerChar()).Map(func(chars []rune) string {
		return string(chars) + "@example.com"
	})

	properties.Property("token_round_trip", prop.ForAll(
		func(secret string, userID uint, email string) bool {
			manager := NewJWTManager(secret, time.Hour)

			token, expiresAt, err := manager.GenerateToken(userID, email)
			if err != nil {
				return false
			}
			if expiresAt <= time.Now().Unix() {
				return false
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				return false
			}
			return claims.UserID == userID && claims.Email == email
		},
		secretGen,
		userIDGen,
		emailGen,
	))

	properties.Property("token_rejected_under_other_secret", prop.ForAll(
		func(secret string, userID uint, email string) bool {
			manager := NewJWTManager(secret, time.Hour)
			other := NewJWTManager(secret+"-different", time.Hour)

			token, _, err := manager.GenerateToken(userID, email)
			if err != nil {
				return false
			}

			_, err = other.ValidateToken(token)
			return errors.Is(err, ErrInvalidToken)
		},
		secretGen,
		userIDGen,
		emailGen,
	))

	properties.TestingRun(t)
}

func TestValidateTokenExpired(t *testing.T) {
	manager := NewJWTManager("secret", -time.Hour)

	token, _, err := manager.GenerateToken(1, "a@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateToken = %v, want ErrTokenExpired", err)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)

	for _, token := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateToken(%q) = %v, want ErrInvalidToken", token, err)
		}
	}
}
