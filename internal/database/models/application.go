package models

import (
	"time"
)

// Sentinel values used when the extractor could not learn a field.
const (
	UnknownPosition = "Unknown Position"
	UnknownPlatform = "Unknown Platform"
)

// JobApplication represents one tracked job application, deduplicated
// across all the emails that refer to it. At most one row ever attributes
// to a given source message for a given user.
type JobApplication struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"index;not null;uniqueIndex:idx_user_source_message" json:"user_id"`
	CompanyName     string     `gorm:"size:255;not null;index" json:"company_name"`
	JobTitle        string     `gorm:"size:255;not null" json:"job_title"`
	Platform        string     `gorm:"size:100;not null" json:"platform"`
	Status          string     `gorm:"size:50;default:'applied'" json:"status"`
	AppliedOn       time.Time  `gorm:"not null" json:"applied_on"`
	EmailSubject    string     `gorm:"size:500" json:"email_subject"`
	EmailBody       string     `gorm:"type:text" json:"email_body"`
	EmailReceivedAt time.Time  `gorm:"not null" json:"email_received_at"`
	SourceMessageID string     `gorm:"size:255;not null;uniqueIndex:idx_user_source_message" json:"source_message_id"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ApplicationStatus represents the lifecycle stage of an application
type ApplicationStatus string

const (
	StatusApplied   ApplicationStatus = "applied"
	StatusInterview ApplicationStatus = "interview"
	StatusOffer     ApplicationStatus = "offer"
	StatusRejected  ApplicationStatus = "rejected"
	StatusWithdrawn ApplicationStatus = "withdrawn"
)

// IsValid checks if the status is one of the five lifecycle stages
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}
