package services

import (
	"context"
	"log"
	"time"

	"github.com/sahana-h/job-parser/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
)

// refreshThreshold is how close to expiry a token gets before a refresh
// is attempted.
const refreshThreshold = 10 * time.Minute

// TokenScheduler refreshes stored OAuth tokens before they expire so scans
// never start with a dead access token.
type TokenScheduler struct {
	credentialService *CredentialService
	oauthConfig       *oauth2.Config
	interval          time.Duration
	stopChan          chan struct{}
	running           bool
}

// NewTokenScheduler creates a new token scheduler
func NewTokenScheduler(credentialService *CredentialService, cfg *config.Config, interval time.Duration) *TokenScheduler {
	return &TokenScheduler{
		credentialService: credentialService,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmailv1.GmailReadonlyScope},
		},
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the token refresh scheduler
func (s *TokenScheduler) Start() {
	if s.running {
		return
	}
	s.running = true
	go s.run()
	log.Printf("[TokenScheduler] Started with interval %v", s.interval)
}

// Stop stops the token refresh scheduler
func (s *TokenScheduler) Stop() {
	if !s.running {
		return
	}
	close(s.stopChan)
	s.running = false
	log.Println("[TokenScheduler] Stopped")
}

func (s *TokenScheduler) run() {
	s.refreshExpiringTokens()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshExpiringTokens()
		case <-s.stopChan:
			return
		}
	}
}

// refreshExpiringTokens refreshes tokens that are about to expire
func (s *TokenScheduler) refreshExpiringTokens() {
	threshold := time.Now().Add(refreshThreshold)

	credentials, err := s.credentialService.ExpiringCredentials(threshold)
	if err != nil {
		log.Printf("[TokenScheduler] Error finding credentials: %v", err)
		return
	}

	if len(credentials) == 0 {
		return
	}

	log.Printf("[TokenScheduler] Found %d expiring tokens", len(credentials))

	for _, credential := range credentials {
		if err := s.refreshOne(credential.UserID); err != nil {
			log.Printf("[TokenScheduler] Failed to refresh token for user %d: %v", credential.UserID, err)
		} else {
			log.Printf("[TokenScheduler] Refreshed token for user %d", credential.UserID)
		}
	}
}

// refreshOne refreshes a single user's token and re-encrypts it. A provider
// rejection of the refresh token marks the credential invalid so the user
// gets prompted to re-authorize instead of failing silently forever.
func (s *TokenScheduler) refreshOne(userID uint) error {
	token, err := s.credentialService.Load(userID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	refreshed, err := s.oauthConfig.TokenSource(ctx, token).Token()
	if err != nil {
		if markErr := s.credentialService.MarkInvalid(userID); markErr != nil {
			log.Printf("[TokenScheduler] Failed to mark credential invalid for user %d: %v", userID, markErr)
		}
		return err
	}

	return s.credentialService.Set(userID, refreshed, s.oauthConfig.Scopes)
}
