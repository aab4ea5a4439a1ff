package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sahana-h/job-parser/internal/database/models"
	"github.com/sahana-h/job-parser/internal/functions"
	"gorm.io/gorm"
)

// ErrApplicationNotFound indicates the requested application row does not exist
var ErrApplicationNotFound = errors.New("application not found")

// OutcomeKind tags what reconciliation did with a fact.
type OutcomeKind int

const (
	// OutcomeInserted means a new application row was created
	OutcomeInserted OutcomeKind = iota
	// OutcomeMerged means an existing row absorbed the fact
	OutcomeMerged
	// OutcomeDuplicate means the source message was already attributed
	OutcomeDuplicate
	// OutcomeRejected means the fact was unusable and nothing was written
	OutcomeRejected
)

// String returns the log-friendly name of the outcome kind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInserted:
		return "inserted"
	case OutcomeMerged:
		return "merged"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeRejected:
		return "rejected"
	}
	return "unknown"
}

// Outcome is the result of reconciling one fact. Record is set for
// Inserted, Merged and Duplicate; Reason explains Rejected.
type Outcome struct {
	Kind   OutcomeKind
	Record *models.JobApplication
	Reason string
}

// ReconcileService folds extracted facts into the application table,
// deduplicating and merging per user.
type ReconcileService struct {
	db         *gorm.DB
	logService *LogService
	userLocks  sync.Map // one mutex per user id
}

// NewReconcileService creates a new ReconcileService instance
func NewReconcileService(db *gorm.DB, logService *LogService) *ReconcileService {
	return &ReconcileService{
		db:         db,
		logService: logService,
	}
}

func (s *ReconcileService) lockUser(userID uint) *sync.Mutex {
	lock, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Reconcile folds one fact into the user's application records. The steps
// run in a fixed order under a per-user lock: exact message duplicate,
// company presence, fuzzy company match, insert.
func (s *ReconcileService) Reconcile(userID uint, fact *functions.CandidateFact) (Outcome, error) {
	lock := s.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	// Exact duplicate: this message already produced a row
	var existing models.JobApplication
	err := s.db.Where("user_id = ? AND source_message_id = ?", userID, fact.MessageID).
		First(&existing).Error
	if err == nil {
		return Outcome{Kind: OutcomeDuplicate, Record: &existing}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Outcome{}, err
	}

	if strings.TrimSpace(fact.CompanyName) == "" {
		return Outcome{Kind: OutcomeRejected, Reason: "no company name extracted"}, nil
	}

	match, err := s.findMatch(userID, fact)
	if err != nil {
		return Outcome{}, err
	}
	if match != nil {
		if err := s.merge(match, fact); err != nil {
			return Outcome{}, err
		}
		s.logService.LogInfo(userID, models.LogModuleReconcile, "merge",
			"Application updated from new email", map[string]interface{}{
				"application_id": match.ID,
				"company":        match.CompanyName,
				"status":         match.Status,
			})
		return Outcome{Kind: OutcomeMerged, Record: match}, nil
	}

	record, err := s.insert(userID, fact)
	if err != nil {
		// Another writer attributed this message between our duplicate
		// check and the insert. The unique constraint is the arbiter.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner models.JobApplication
			if readErr := s.db.Where("user_id = ? AND source_message_id = ?", userID, fact.MessageID).
				First(&winner).Error; readErr == nil {
				return Outcome{Kind: OutcomeDuplicate, Record: &winner}, nil
			}
		}
		return Outcome{}, err
	}

	s.logService.LogInfo(userID, models.LogModuleReconcile, "insert",
		"New application tracked", map[string]interface{}{
			"application_id": record.ID,
			"company":        record.CompanyName,
			"status":         record.Status,
		})
	return Outcome{Kind: OutcomeInserted, Record: record}, nil
}

// findMatch scans the user's applications for a fuzzy company match that
// also passes the title rule. First matching row in id order wins.
func (s *ReconcileService) findMatch(userID uint, fact *functions.CandidateFact) (*models.JobApplication, error) {
	var candidates []models.JobApplication
	if err := s.db.Where("user_id = ?", userID).Order("id").Find(&candidates).Error; err != nil {
		return nil, err
	}

	for i := range candidates {
		if companiesMatch(candidates[i].CompanyName, fact.CompanyName) &&
			titlesCompatible(candidates[i].JobTitle, fact.JobTitle) {
			return &candidates[i], nil
		}
	}

	return nil, nil
}

// companiesMatch implements the fuzzy company comparison: case-folded
// equality, containment either way, or first-token equality. "Acme" and
// "Acme Corp" refer to the same employer; so do "Acme Corp" and
// "Acme Inc", which is accepted as the cost of catching renames.
func companiesMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}

	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	return firstToken(a) == firstToken(b)
}

func firstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// titlesCompatible decides whether two titles can describe the same
// application. An unknown or absent title matches anything; otherwise one
// must contain the other, so "Backend Intern" at the same company stays
// distinct from "Data Scientist".
func titlesCompatible(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	unknown := strings.ToLower(models.UnknownPosition)

	if a == "" || b == "" || a == unknown || b == unknown {
		return true
	}

	return strings.Contains(a, b) || strings.Contains(b, a)
}

// merge folds a later email about a known application into its row. The
// newer email wins on status and message fields; the title is only learned
// over the unknown sentinel, never overwritten.
func (s *ReconcileService) merge(record *models.JobApplication, fact *functions.CandidateFact) error {
	if fact.Status != "" {
		record.Status = fact.Status
	}
	if fact.JobTitle != "" && record.JobTitle == models.UnknownPosition {
		record.JobTitle = fact.JobTitle
	}
	if fact.Platform != "" && record.Platform == models.UnknownPlatform {
		record.Platform = fact.Platform
	}
	record.EmailSubject = fact.Subject
	record.EmailBody = fact.Body
	record.EmailReceivedAt = fact.MessageSentAt

	return s.db.Save(record).Error
}

// insert creates a new application row, filling absent fields with the
// sentinel defaults.
func (s *ReconcileService) insert(userID uint, fact *functions.CandidateFact) (*models.JobApplication, error) {
	record := &models.JobApplication{
		UserID:          userID,
		CompanyName:     fact.CompanyName,
		JobTitle:        fact.JobTitle,
		Platform:        fact.Platform,
		Status:          fact.Status,
		EmailSubject:    fact.Subject,
		EmailBody:       fact.Body,
		EmailReceivedAt: fact.MessageSentAt,
		SourceMessageID: fact.MessageID,
	}

	if record.JobTitle == "" {
		record.JobTitle = models.UnknownPosition
	}
	if record.Platform == "" {
		record.Platform = models.UnknownPlatform
	}
	if record.Status == "" {
		record.Status = string(models.StatusApplied)
	}
	if fact.AppliedOn != nil {
		record.AppliedOn = *fact.AppliedOn
	} else {
		record.AppliedOn = fact.MessageSentAt
	}

	if err := s.db.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// ListProcessedMessageIDs returns every source message id already
// attributed to one of the user's applications. The pipeline uses this to
// skip refetching known mail.
func (s *ReconcileService) ListProcessedMessageIDs(userID uint) (map[string]bool, error) {
	var ids []string
	err := s.db.Model(&models.JobApplication{}).
		Where("user_id = ?", userID).
		Pluck("source_message_id", &ids).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}

// PurgeOlderThan deletes the user's applications whose source email is
// older than the cutoff. Returns the number of rows removed.
func (s *ReconcileService) PurgeOlderThan(userID uint, cutoff time.Time) (int64, error) {
	result := s.db.Where("user_id = ? AND email_received_at < ?", userID, cutoff).
		Delete(&models.JobApplication{})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		s.logService.LogInfo(userID, models.LogModuleReconcile, "purge",
			"Old applications removed", map[string]interface{}{
				"removed": result.RowsAffected,
				"cutoff":  cutoff,
			})
	}
	return result.RowsAffected, nil
}

// ApplicationQuery filters application listings
type ApplicationQuery struct {
	UserID uint
	Days   int    // only applications received in the last N days, 0 = all
	Status string // filter by status, "" = all
	Search string // substring match on company or title
	Limit  int
}

// ListApplications returns the user's applications, newest first.
func (s *ReconcileService) ListApplications(query ApplicationQuery) ([]models.JobApplication, error) {
	db := s.db.Where("user_id = ?", query.UserID)

	if query.Days > 0 {
		cutoff := time.Now().AddDate(0, 0, -query.Days)
		db = db.Where("email_received_at >= ?", cutoff)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Search != "" {
		pattern := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(company_name) LIKE ? OR LOWER(job_title) LIKE ?", pattern, pattern)
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	var applications []models.JobApplication
	if err := db.Order("email_received_at DESC").Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// GetApplication returns one of the user's applications by id.
func (s *ReconcileService) GetApplication(userID, id uint) (*models.JobApplication, error) {
	var record models.JobApplication
	err := s.db.Where("user_id = ? AND id = ?", userID, id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &record, nil
}

// UpdateStatus sets the status of one application by hand.
func (s *ReconcileService) UpdateStatus(userID, id uint, status string) (*models.JobApplication, error) {
	if !models.ApplicationStatus(status).IsValid() {
		return nil, errors.New("invalid status: " + status)
	}

	record, err := s.GetApplication(userID, id)
	if err != nil {
		return nil, err
	}

	record.Status = status
	if err := s.db.Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Stats summarizes a user's applications by lifecycle stage
type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// GetStats counts the user's applications per status.
func (s *ReconcileService) GetStats(userID uint) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[string]int64)}

	if err := s.db.Model(&models.JobApplication{}).
		Where("user_id = ?", userID).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	err := s.db.Model(&models.JobApplication{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
	}
	return stats, nil
}
