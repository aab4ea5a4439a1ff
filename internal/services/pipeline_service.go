package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sahana-h/job-parser/internal/config"
	"github.com/sahana-h/job-parser/internal/functions"
	"github.com/sahana-h/job-parser/internal/mail"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
)

// messageWorkers bounds concurrent fetch+classify+extract per run. The
// reconciler serializes writes per user on its own.
const messageWorkers = 4

// MailSource is the provider contract the pipeline pulls messages from.
type MailSource interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	Fetch(ctx context.Context, messageID string) (*mail.CandidateMessage, error)
}

// MessageClassifier decides whether a message is worth extracting from.
type MessageClassifier interface {
	IsJobRelated(msg *mail.CandidateMessage) bool
}

// MessageExtractor turns a relevant message into a structured fact.
type MessageExtractor interface {
	Extract(msg *mail.CandidateMessage) *functions.CandidateFact
}

// Summary counts what one pipeline run did.
type Summary struct {
	Found   int `json:"found"`
	New     int `json:"new"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// PipelineService runs the scan for one user: pull candidate mail, classify,
// extract, reconcile, purge. One Run is one scan.
type PipelineService struct {
	cfg               *config.Config
	credentialService *CredentialService
	reconcileService  *ReconcileService
	logService        *LogService
	classifier        MessageClassifier
	extractor         MessageExtractor

	// newSource builds a MailSource from a stored token. Swappable so tests
	// run without a mail provider.
	newSource func(ctx context.Context, token *oauth2.Token) (MailSource, error)
}

// NewPipelineService creates a PipelineService wired to the Gmail API.
func NewPipelineService(
	cfg *config.Config,
	credentialService *CredentialService,
	reconcileService *ReconcileService,
	logService *LogService,
	classifier MessageClassifier,
	extractor MessageExtractor,
) *PipelineService {
	s := &PipelineService{
		cfg:               cfg,
		credentialService: credentialService,
		reconcileService:  reconcileService,
		logService:        logService,
		classifier:        classifier,
		extractor:         extractor,
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmailv1.GmailReadonlyScope},
	}
	s.newSource = func(ctx context.Context, token *oauth2.Token) (MailSource, error) {
		return mail.NewClient(ctx, oauthConfig, token)
	}

	return s
}

// SetSourceFactory replaces the mail source constructor.
func (s *PipelineService) SetSourceFactory(factory func(ctx context.Context, token *oauth2.Token) (MailSource, error)) {
	s.newSource = factory
}

// Run executes one scan for the user. A credential problem fails the run;
// a single bad message is logged, counted as skipped and never aborts the
// rest of the batch.
func (s *PipelineService) Run(ctx context.Context, userID uint, days int) (Summary, error) {
	start := time.Now()
	var summary Summary

	if days <= 0 {
		days = s.cfg.LookbackDays
	}

	token, err := s.credentialService.Load(userID)
	if err != nil {
		s.logService.LogScan(userID, ScanDetails{Days: days}, err)
		return summary, err
	}

	source, err := s.newSource(ctx, token)
	if err != nil {
		s.logService.LogScan(userID, ScanDetails{Days: days}, err)
		return summary, err
	}

	query := mail.BuildQuery(days)
	ids, err := source.Search(ctx, query, s.cfg.MaxMessagesPerCheck)
	if err != nil {
		s.logService.LogScan(userID, ScanDetails{Days: days}, err)
		return summary, err
	}

	seen, err := s.reconcileService.ListProcessedMessageIDs(userID)
	if err != nil {
		return summary, err
	}

	var pending []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		pending = append(pending, id)
	}
	summary.Found = len(pending)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, messageWorkers)
	)

	for _, id := range pending {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}

		wg.Add(1)
		go func(messageID string) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := s.processMessage(ctx, source, userID, messageID)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case OutcomeInserted:
				summary.New++
			case OutcomeMerged:
				summary.Updated++
			default:
				summary.Skipped++
			}
		}(id)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if s.cfg.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
		if _, err := s.reconcileService.PurgeOlderThan(userID, cutoff); err != nil {
			log.Printf("[Pipeline] retention purge failed for user %d: %v", userID, err)
		}
	}

	s.logService.LogScan(userID, ScanDetails{
		Days:     days,
		Found:    summary.Found,
		New:      summary.New,
		Updated:  summary.Updated,
		Skipped:  summary.Skipped,
		Duration: time.Since(start).Milliseconds(),
	}, nil)

	return summary, nil
}

// processMessage runs one message through fetch, classify, extract and
// reconcile. Every failure path degrades to OutcomeRejected so the caller
// just counts it as skipped.
func (s *PipelineService) processMessage(ctx context.Context, source MailSource, userID uint, messageID string) OutcomeKind {
	msg, err := source.Fetch(ctx, messageID)
	if err != nil {
		log.Printf("[Pipeline] fetch failed for message %s: %v", messageID, err)
		return OutcomeRejected
	}

	if !s.classifier.IsJobRelated(msg) {
		return OutcomeRejected
	}

	fact := s.extractor.Extract(msg)
	if fact == nil {
		return OutcomeRejected
	}

	outcome, err := s.reconcileService.Reconcile(userID, fact)
	if err != nil {
		log.Printf("[Pipeline] reconcile failed for message %s: %v", messageID, err)
		return OutcomeRejected
	}

	return outcome.Kind
}
