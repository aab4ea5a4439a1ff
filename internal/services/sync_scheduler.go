package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// SyncScheduler drives periodic mailbox scans for every user holding a
// stored credential.
type SyncScheduler struct {
	pipeline          *PipelineService
	credentialService *CredentialService
	interval          time.Duration
	maxConcurrent     int
	stopChan          chan struct{}
	running           bool
	mu                sync.Mutex
	scanning          sync.Mutex // guards against overlapping cycles
	userLocks         sync.Map   // per-user lock shared with manual scans
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(pipeline *PipelineService, credentialService *CredentialService, interval time.Duration, maxConcurrent int) *SyncScheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &SyncScheduler{
		pipeline:          pipeline,
		credentialService: credentialService,
		interval:          interval,
		maxConcurrent:     maxConcurrent,
		stopChan:          make(chan struct{}),
	}
}

// Start begins the periodic scan loop. The first cycle runs immediately;
// later cycles follow the ticker, so the interval is measured between
// cycle starts after the previous one finished.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[SyncScheduler] Starting with interval: %v", s.interval)

	go func() {
		s.scanAllUsers()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.scanAllUsers()
			case <-s.stopChan:
				log.Println("[SyncScheduler] Stopping")
				return
			}
		}
	}()
}

// Stop stops the scan loop
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopChan)
	s.running = false
}

// TryLockUser attempts to take the per-user scan lock. Manual scan
// triggers use this so they never overlap a scheduled scan of the same
// mailbox.
func (s *SyncScheduler) TryLockUser(userID uint) bool {
	_, loaded := s.userLocks.LoadOrStore(userID, true)
	return !loaded
}

// UnlockUser releases the per-user scan lock
func (s *SyncScheduler) UnlockUser(userID uint) {
	s.userLocks.Delete(userID)
}

// scanAllUsers runs one cycle over every user with a stored credential.
func (s *SyncScheduler) scanAllUsers() {
	// A cycle still running means the interval is too short for the
	// mailbox volume. Skip rather than pile up.
	if !s.scanning.TryLock() {
		log.Println("[SyncScheduler] Previous cycle still running, skipping")
		return
	}
	defer s.scanning.Unlock()

	userIDs, err := s.credentialService.UserIDsWithCredential()
	if err != nil {
		log.Printf("[SyncScheduler] Failed to list users: %v", err)
		return
	}

	if len(userIDs) == 0 {
		return
	}

	log.Printf("[SyncScheduler] Scanning %d mailboxes", len(userIDs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.maxConcurrent)

	for _, userID := range userIDs {
		if !s.TryLockUser(userID) {
			log.Printf("[SyncScheduler] User %d scan already in progress, skipping", userID)
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			defer func() { <-sem }()
			defer s.UnlockUser(id)

			s.scanOneUser(id)
		}(userID)
	}
	wg.Wait()

	log.Println("[SyncScheduler] Cycle completed")
}

// scanOneUser runs the pipeline for one user with retry and backoff.
// Credential errors are terminal for the cycle; re-authorization is a user
// action, not something retries can fix.
func (s *SyncScheduler) scanOneUser(userID uint) {
	const maxRetries = 2
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("[SyncScheduler] User %d retry %d/%d after %v", userID, attempt, maxRetries, backoff)

			select {
			case <-time.After(backoff):
			case <-s.stopChan:
				return
			}
		}

		summary, err := s.pipeline.Run(context.Background(), userID, 0)
		if err == nil {
			if summary.New > 0 || summary.Updated > 0 {
				log.Printf("[SyncScheduler] User %d: %d new, %d updated, %d skipped", userID, summary.New, summary.Updated, summary.Skipped)
			}
			return
		}

		if errors.Is(err, ErrCredentialMissing) || errors.Is(err, ErrCredentialInvalid) {
			log.Printf("[SyncScheduler] User %d needs re-authorization: %v", userID, err)
			return
		}

		lastErr = err
		log.Printf("[SyncScheduler] User %d scan attempt %d failed: %v", userID, attempt+1, err)
	}

	log.Printf("[SyncScheduler] User %d scan failed after %d attempts: %v", userID, maxRetries+1, lastErr)
}
