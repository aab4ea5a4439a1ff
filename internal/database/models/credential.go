package models

import (
	"time"
)

// MailCredential stores the encrypted OAuth token bundle for a user's
// mailbox. The ciphertext column only ever holds vault output; plaintext
// tokens never reach the database.
type MailCredential struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Provider   string    `gorm:"size:50;default:'google'" json:"provider"`
	Scope      string    `gorm:"size:500" json:"scope"`
	Ciphertext string    `gorm:"type:text;not null" json:"-"`
	Expiry     time.Time `json:"expiry"`
	Invalid    bool      `gorm:"default:false" json:"invalid"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
