package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sahana-h/job-parser/internal/database/models"
	"github.com/sahana-h/job-parser/internal/vault"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var (
	// ErrCredentialMissing indicates the user has not authorized a mailbox
	ErrCredentialMissing = errors.New("no mail credential stored")
	// ErrCredentialInvalid indicates the stored credential cannot be used
	// and the user must re-authorize
	ErrCredentialInvalid = errors.New("stored mail credential is invalid")
)

// CredentialService manages the encrypted OAuth token bundle each user
// stores for mailbox access. One credential per user; storing again
// replaces the previous one.
type CredentialService struct {
	db         *gorm.DB
	vault      *vault.Vault
	logService *LogService
}

// NewCredentialService creates a new CredentialService instance
func NewCredentialService(db *gorm.DB, v *vault.Vault, logService *LogService) *CredentialService {
	return &CredentialService{
		db:         db,
		vault:      v,
		logService: logService,
	}
}

// Set encrypts and stores a user's OAuth token, replacing any existing one.
func (s *CredentialService) Set(userID uint, token *oauth2.Token, scopes []string) error {
	plaintext, err := json.Marshal(token)
	if err != nil {
		return err
	}

	ciphertext, err := s.vault.Encrypt(plaintext)
	if err != nil {
		return err
	}

	credential := models.MailCredential{
		UserID:     userID,
		Provider:   "google",
		Scope:      strings.Join(scopes, " "),
		Ciphertext: ciphertext,
		Expiry:     token.Expiry,
		Invalid:    false,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.MailCredential
		result := tx.Where("user_id = ?", userID).First(&existing)
		if result.Error == nil {
			credential.ID = existing.ID
			credential.CreatedAt = existing.CreatedAt
			return tx.Save(&credential).Error
		}
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tx.Create(&credential).Error
		}
		return result.Error
	})
	if err != nil {
		return err
	}

	s.logService.LogInfo(userID, models.LogModuleCredential, "store", "Mail credential stored", nil)
	return nil
}

// Load decrypts and returns the user's OAuth token. A credential written
// under a different vault key comes back as ErrCredentialInvalid so callers
// can ask the user to re-authorize rather than retry forever.
func (s *CredentialService) Load(userID uint) (*oauth2.Token, error) {
	var credential models.MailCredential
	if err := s.db.Where("user_id = ?", userID).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialMissing
		}
		return nil, err
	}

	if credential.Invalid {
		return nil, ErrCredentialInvalid
	}

	plaintext, err := s.vault.Decrypt(credential.Ciphertext)
	if err != nil {
		return nil, ErrCredentialInvalid
	}

	var token oauth2.Token
	if err := json.Unmarshal(plaintext, &token); err != nil {
		return nil, ErrCredentialInvalid
	}

	return &token, nil
}

// Get returns the stored credential row without decrypting it.
func (s *CredentialService) Get(userID uint) (*models.MailCredential, error) {
	var credential models.MailCredential
	if err := s.db.Where("user_id = ?", userID).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialMissing
		}
		return nil, err
	}
	return &credential, nil
}

// MarkInvalid flags the credential so future loads fail fast. Used when the
// provider rejects the refresh token.
func (s *CredentialService) MarkInvalid(userID uint) error {
	err := s.db.Model(&models.MailCredential{}).
		Where("user_id = ?", userID).
		Update("invalid", true).Error
	if err != nil {
		return err
	}

	s.logService.LogWarn(userID, models.LogModuleCredential, "invalidate", "Mail credential marked invalid, re-authorization required", nil)
	return nil
}

// Clear removes the user's stored credential.
func (s *CredentialService) Clear(userID uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&models.MailCredential{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCredentialMissing
	}

	s.logService.LogInfo(userID, models.LogModuleCredential, "clear", "Mail credential removed", nil)
	return nil
}

// UserIDsWithCredential returns every user holding a usable credential.
// The scheduler iterates this set each cycle.
func (s *CredentialService) UserIDsWithCredential() ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.MailCredential{}).
		Where("invalid = ?", false).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ExpiringCredentials returns credentials whose access token expires before
// the threshold and that are still considered valid.
func (s *CredentialService) ExpiringCredentials(threshold time.Time) ([]models.MailCredential, error) {
	var credentials []models.MailCredential
	err := s.db.
		Where("invalid = ? AND expiry < ?", false, threshold).
		Find(&credentials).Error
	if err != nil {
		return nil, err
	}
	return credentials, nil
}
