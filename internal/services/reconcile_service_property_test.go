package services

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/sahana-h/job-parser/internal/database/models"
	"gorm.io/gorm"
)

func newTestReconciler(t *testing.T) *ReconcileService {
	t.Helper()
	db := newTestDB(t)
	return NewReconcileService(db, NewLogService(db))
}

func countApplications(t *testing.T, s *ReconcileService, userID uint) int64 {
	t.Helper()
	var count int64
	if err := s.db.Model(&models.JobApplication{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

// Property: reconciling the same fact any number of times writes exactly
// one row; every pass after the first reports Duplicate.
func TestProperty_ReconcileIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	companyGen := gen.SliceOfN(8, gen.AlphaLowerChar()).Map(func(chars []rune) string {
		return string(chars)
	})
	repeatGen := gen.IntRange(2, 5)

	properties.Property("repeat_reconcile_one_row", prop.ForAll(
		func(company string, repeats int) bool {
			service := newTestReconciler(t)
			fact := newTestFact("msg-idem", company, "Engineer", "applied")

			first, err := service.Reconcile(1, fact)
			if err != nil || first.Kind != OutcomeInserted {
				return false
			}

			for i := 1; i < repeats; i++ {
				outcome, err := service.Reconcile(1, fact)
				if err != nil || outcome.Kind != OutcomeDuplicate {
					return false
				}
				if outcome.Record == nil || outcome.Record.ID != first.Record.ID {
					return false
				}
			}

			return countApplications(t, service, 1) == 1
		},
		companyGen,
		repeatGen,
	))

	properties.TestingRun(t)
}

func TestReconcileRejectsMissingCompany(t *testing.T) {
	service := newTestReconciler(t)

	outcome, err := service.Reconcile(1, newTestFact("msg-1", "  ", "Engineer", "applied"))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome.Kind != OutcomeRejected {
		t.Fatalf("Kind = %v, want Rejected", outcome.Kind)
	}
	if outcome.Reason == "" {
		t.Error("Rejected outcome carries no reason")
	}
	if countApplications(t, service, 1) != 0 {
		t.Error("rejected fact was persisted")
	}
}

func TestReconcileInsertDefaults(t *testing.T) {
	service := newTestReconciler(t)

	fact := newTestFact("msg-1", "Acme", "", "")
	outcome, err := service.Reconcile(1, fact)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome.Kind != OutcomeInserted {
		t.Fatalf("Kind = %v, want Inserted", outcome.Kind)
	}

	record := outcome.Record
	if record.JobTitle != models.UnknownPosition {
		t.Errorf("JobTitle = %q, want sentinel", record.JobTitle)
	}
	if record.Platform != models.UnknownPlatform {
		t.Errorf("Platform = %q, want sentinel", record.Platform)
	}
	if record.Status != string(models.StatusApplied) {
		t.Errorf("Status = %q, want applied", record.Status)
	}
	if !record.AppliedOn.Equal(fact.MessageSentAt) {
		t.Errorf("AppliedOn = %v, want receipt time %v", record.AppliedOn, fact.MessageSentAt)
	}
}

// Confirmation from "Acme Corp" followed by a rejection from "Acme": the
// fuzzy company match folds the rejection into the existing record.
func TestReconcileMergesAcrossCompanyVariants(t *testing.T) {
	service := newTestReconciler(t)

	first, err := service.Reconcile(1, newTestFact("msg-1", "Acme Corp", "Backend Intern", "applied"))
	if err != nil || first.Kind != OutcomeInserted {
		t.Fatalf("first Reconcile: %v %v", first.Kind, err)
	}

	rejection := newTestFact("msg-2", "Acme", "", "rejected")
	second, err := service.Reconcile(1, rejection)
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if second.Kind != OutcomeMerged {
		t.Fatalf("Kind = %v, want Merged", second.Kind)
	}
	if second.Record.ID != first.Record.ID {
		t.Error("merged into a different record")
	}
	if second.Record.Status != "rejected" {
		t.Errorf("Status = %q, want rejected", second.Record.Status)
	}
	if second.Record.JobTitle != "Backend Intern" {
		t.Errorf("merge overwrote a known title: %q", second.Record.JobTitle)
	}
	if countApplications(t, service, 1) != 1 {
		t.Error("merge created a second row")
	}
}

func TestReconcileFirstTokenMatch(t *testing.T) {
	service := newTestReconciler(t)

	service.Reconcile(1, newTestFact("msg-1", "Acme Inc", "Engineer", "applied"))
	outcome, err := service.Reconcile(1, newTestFact("msg-2", "Acme Corporation", "Engineer", "interview"))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome.Kind != OutcomeMerged {
		t.Fatalf("Kind = %v, want Merged on first-token match", outcome.Kind)
	}
}

// The unknown-title sentinel matches anything and gets replaced by the
// first real title; a real title only matches containing titles.
func TestReconcileTitleRules(t *testing.T) {
	service := newTestReconciler(t)

	// Insert with no title
	first, _ := service.Reconcile(1, newTestFact("msg-1", "Acme", "", "applied"))
	if first.Record.JobTitle != models.UnknownPosition {
		t.Fatalf("setup: title = %q", first.Record.JobTitle)
	}

	// A titled follow-up merges and teaches the title
	second, err := service.Reconcile(1, newTestFact("msg-2", "Acme", "Backend Intern", "interview"))
	if err != nil || second.Kind != OutcomeMerged {
		t.Fatalf("second Reconcile: %v %v", second.Kind, err)
	}
	if second.Record.JobTitle != "Backend Intern" {
		t.Errorf("title not learned: %q", second.Record.JobTitle)
	}

	// A different position at the same company is a new application
	third, err := service.Reconcile(1, newTestFact("msg-3", "Acme", "Data Scientist", "applied"))
	if err != nil {
		t.Fatalf("third Reconcile: %v", err)
	}
	if third.Kind != OutcomeInserted {
		t.Fatalf("Kind = %v, want Inserted for distinct title", third.Kind)
	}
	if countApplications(t, service, 1) != 2 {
		t.Errorf("expected 2 rows, got %d", countApplications(t, service, 1))
	}
}

// Rows are namespaced by user: the same message id and company for two
// users never collide or merge.
func TestReconcileIsolatesUsers(t *testing.T) {
	service := newTestReconciler(t)

	one, err := service.Reconcile(1, newTestFact("msg-1", "Acme", "Engineer", "applied"))
	if err != nil || one.Kind != OutcomeInserted {
		t.Fatalf("user 1: %v %v", one.Kind, err)
	}
	two, err := service.Reconcile(2, newTestFact("msg-1", "Acme", "Engineer", "applied"))
	if err != nil {
		t.Fatalf("user 2: %v", err)
	}
	if two.Kind != OutcomeInserted {
		t.Fatalf("user 2 Kind = %v, want Inserted", two.Kind)
	}
}

func TestUpdateStatus(t *testing.T) {
	service := newTestReconciler(t)

	inserted, _ := service.Reconcile(1, newTestFact("msg-1", "Acme", "Engineer", "applied"))

	updated, err := service.UpdateStatus(1, inserted.Record.ID, "offer")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != "offer" {
		t.Errorf("Status = %q", updated.Status)
	}

	if _, err := service.UpdateStatus(1, inserted.Record.ID, "ghosted"); err == nil {
		t.Error("UpdateStatus accepted an out-of-enum status")
	}

	if _, err := service.UpdateStatus(2, inserted.Record.ID, "offer"); !errors.Is(err, ErrApplicationNotFound) {
		t.Errorf("cross-user UpdateStatus error = %v, want ErrApplicationNotFound", err)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	service := newTestReconciler(t)

	old := newTestFact("msg-old", "Oldco", "Engineer", "applied")
	old.MessageSentAt = time.Now().AddDate(0, 0, -120)
	fresh := newTestFact("msg-new", "Newco", "Engineer", "applied")
	fresh.MessageSentAt = time.Now()

	service.Reconcile(1, old)
	service.Reconcile(1, fresh)

	removed, err := service.PurgeOlderThan(1, time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	remaining, err := service.ListApplications(ApplicationQuery{UserID: 1})
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if len(remaining) != 1 || remaining[0].CompanyName != "Newco" {
		t.Errorf("remaining = %+v", remaining)
	}
}

func TestGetStatsAndListFilters(t *testing.T) {
	service := newTestReconciler(t)

	service.Reconcile(1, newTestFact("msg-1", "Acme", "Engineer", "applied"))
	service.Reconcile(1, newTestFact("msg-2", "Beta Labs", "Scientist", "rejected"))
	service.Reconcile(1, newTestFact("msg-3", "Gamma", "Analyst", "rejected"))

	stats, err := service.GetStats(1)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 3 || stats.ByStatus["rejected"] != 2 || stats.ByStatus["applied"] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	rejected, err := service.ListApplications(ApplicationQuery{UserID: 1, Status: "rejected"})
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if len(rejected) != 2 {
		t.Errorf("rejected rows = %d, want 2", len(rejected))
	}

	found, err := service.ListApplications(ApplicationQuery{UserID: 1, Search: "beta"})
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if len(found) != 1 || found[0].CompanyName != "Beta Labs" {
		t.Errorf("search result = %+v", found)
	}
}

// A competing writer can attribute the same message between the duplicate
// check and the insert. The unique index on (user_id, source_message_id)
// rejects the loser and Reconcile reports Duplicate instead of an error.
func TestReconcileInsertRaceResolvesToDuplicate(t *testing.T) {
	service := newTestReconciler(t)
	fact := newTestFact("msg-race", "Acme", "Backend Intern", "applied")

	// Land the conflicting row right before the insert fires, after the
	// duplicate check has already passed.
	var raced bool
	err := service.db.Callback().Create().Before("gorm:create").Register("race_writer", func(tx *gorm.DB) {
		if raced {
			return
		}
		raced = true
		winner := &models.JobApplication{
			UserID:          1,
			CompanyName:     "Acme",
			JobTitle:        models.UnknownPosition,
			Platform:        models.UnknownPlatform,
			Status:          string(models.StatusApplied),
			AppliedOn:       fact.MessageSentAt,
			EmailReceivedAt: fact.MessageSentAt,
			SourceMessageID: fact.MessageID,
		}
		if err := service.db.Session(&gorm.Session{NewDB: true}).Create(winner).Error; err != nil {
			t.Errorf("competing insert: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	outcome, err := service.Reconcile(1, fact)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome.Kind != OutcomeDuplicate {
		t.Fatalf("outcome = %v, want duplicate", outcome.Kind)
	}
	if outcome.Record == nil || outcome.Record.SourceMessageID != fact.MessageID {
		t.Error("duplicate outcome does not carry the surviving row")
	}
	if got := countApplications(t, service, 1); got != 1 {
		t.Errorf("row count = %d, want 1", got)
	}

	// The sqlite unique violation must surface as gorm's sentinel for the
	// conversion above to see it.
	if _, err := service.insert(1, fact); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("insert = %v, want gorm.ErrDuplicatedKey", err)
	}
}
