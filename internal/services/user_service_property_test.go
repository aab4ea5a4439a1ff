package services

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: passwords are never stored as plaintext and always verify
// through bcrypt, never by comparison with the stored value.

func TestProperty_UserPasswordEncryption(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	validPasswordGen := gen.SliceOfN(10, gen.AlphaChar()).Map(func(chars []rune) string {
		return string(chars)
	})
	localPartGen := gen.SliceOfN(8, gen.AlphaLowerChar()).Map(func(chars []rune) string {
		return string(chars)
	})

	properties.Property("password_stored_hashed_and_verifiable", prop.ForAll(
		func(localPart, password string) bool {
			service := NewUserService(newTestDB(t))
			email := localPart + "@example.com"

			created, err := service.CreateUser(email, password, "Test User")
			if err != nil {
				return false
			}

			if created.PasswordHash == password {
				return false
			}

			verified, err := service.VerifyPassword(email, password)
			if err != nil {
				return false
			}
			if verified.ID != created.ID {
				return false
			}

			_, err = service.VerifyPassword(email, password+"-wrong")
			return errors.Is(err, ErrInvalidCredentials)
		},
		localPartGen,
		validPasswordGen,
	))

	properties.TestingRun(t)
}

func TestCreateUserValidation(t *testing.T) {
	service := NewUserService(newTestDB(t))

	if _, err := service.CreateUser("not-an-email", "password1", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("CreateUser with bad email = %v, want ErrInvalidEmail", err)
	}

	if _, err := service.CreateUser("a@example.com", "short", ""); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("CreateUser with short password = %v, want ErrPasswordTooShort", err)
	}

	if _, err := service.CreateUser("a@example.com", "password1", ""); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := service.CreateUser("A@Example.com", "password2", ""); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate email = %v, want ErrUserAlreadyExists", err)
	}
}

func TestChangePassword(t *testing.T) {
	service := NewUserService(newTestDB(t))

	created, err := service.CreateUser("a@example.com", "original1", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := service.ChangePassword(created.ID, "wrong", "replacement1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("ChangePassword with wrong old password = %v", err)
	}

	if err := service.ChangePassword(created.ID, "original1", "replacement1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := service.VerifyPassword("a@example.com", "replacement1"); err != nil {
		t.Errorf("new password does not verify: %v", err)
	}
	if _, err := service.VerifyPassword("a@example.com", "original1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still verifies")
	}
}
