package functions

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sahana-h/job-parser/internal/database/models"
	"github.com/sahana-h/job-parser/internal/functions/local"
	"github.com/sahana-h/job-parser/internal/mail"
)

const extractorBodyLimit = 2000

const extractionPrompt = `You are an AI assistant that extracts job application information from emails.

Analyze the email below and respond with JSON of exactly this shape:

{
    "company_name": "Name of the company",
    "job_title": "Title of the position applied for",
    "platform": "Platform used (workday, greenhouse, lever, etc.)",
    "status": "One of: applied, interview, offer, rejected, withdrawn",
    "applied_on": "Date the application was submitted (YYYY-MM-DD)"
}

Rules:
1. Extract only information that is explicitly mentioned in the email
2. If a field is not available, use null
3. If the email is not about a job application lifecycle event, set every field to null
4. For platform, identify from the sender email domain or email content
5. status must be one of: applied, interview, offer, rejected, withdrawn
6. Return ONLY valid JSON, no additional text

Examples:

Email: "Subject: Thank you for applying to Acme via Workday\nBody: Your application for Backend Intern was received on 2025-10-01."
Response: {"company_name": "Acme", "job_title": "Backend Intern", "platform": "workday", "status": "applied", "applied_on": "2025-10-01"}

Email: "Subject: Weekly engineering newsletter\nBody: This week in Go..."
Response: {"company_name": null, "job_title": null, "platform": null, "status": null, "applied_on": null}

Email content:
%s

JSON response:`

// appliedOnFormats are tried in order against oracle-supplied dates. A
// date that matches none of them is discarded: a failed extraction date
// must never silently become the processing time.
var appliedOnFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
}

// rawFact is the oracle's JSON shape before cleaning
type rawFact struct {
	CompanyName *string `json:"company_name"`
	JobTitle    *string `json:"job_title"`
	Platform    *string `json:"platform"`
	Status      *string `json:"status"`
	AppliedOn   *string `json:"applied_on"`
}

// Extractor produces a structured fact from a message already judged
// relevant, or a definite nil when nothing extractable is there.
type Extractor struct {
	oracle Oracle
}

// NewExtractor creates an Extractor backed by the given oracle
func NewExtractor(oracle Oracle) *Extractor {
	return &Extractor{oracle: oracle}
}

// Extract runs oracle extraction plus the deterministic status fallback.
// Any oracle failure or malformed response yields nil, never an error that
// could abort the caller's run.
func (e *Extractor) Extract(msg *mail.CandidateMessage) *CandidateFact {
	prompt := fmt.Sprintf(extractionPrompt, prepareContent(msg))

	response, err := e.oracle.Complete(prompt)
	if err != nil {
		log.Printf("[Extractor] oracle error for message %s: %v", msg.MessageID, err)
		return nil
	}

	raw := parseOracleResponse(response)
	if raw == nil {
		return nil
	}

	fact := e.clean(raw)
	if fact == nil {
		return nil
	}

	// The rule layer strengthens a weak oracle signal but never
	// contradicts a strong one.
	if fact.Status == "" || fact.Status == string(models.StatusApplied) {
		if ruled := local.StatusFromText(msg.Body); ruled != "" {
			fact.Status = ruled
		}
	}
	if fact.Status == "" {
		fact.Status = string(models.StatusApplied)
	}

	fact.MessageID = msg.MessageID
	fact.Subject = msg.Subject
	fact.Body = msg.Body
	fact.MessageSentAt = mail.ParseReceivedAt(msg.SentAt)

	return fact
}

// prepareContent assembles the prompt context, truncating the body to stay
// within oracle input limits.
func prepareContent(msg *mail.CandidateMessage) string {
	var parts []string
	if msg.Subject != "" {
		parts = append(parts, "Subject: "+msg.Subject)
	}
	if msg.Sender != "" {
		parts = append(parts, "From: "+msg.Sender)
	}
	if msg.Body != "" {
		body := msg.Body
		if len(body) > extractorBodyLimit {
			body = truncateBody(body, extractorBodyLimit) + "..."
		}
		parts = append(parts, "Body: "+body)
	}
	return strings.Join(parts, "\n\n")
}

// parseOracleResponse strips code fences and parses the JSON object.
// Empty responses, non-JSON text and non-object JSON all mean "no fact".
func parseOracleResponse(response string) *rawFact {
	response = stripCodeFences(strings.TrimSpace(response))
	if response == "" {
		return nil
	}

	// Reject JSON that is not an object before binding fields
	var probe interface{}
	if err := json.Unmarshal([]byte(response), &probe); err != nil {
		return nil
	}
	if _, ok := probe.(map[string]interface{}); !ok {
		return nil
	}

	var raw rawFact
	if err := json.Unmarshal([]byte(response), &raw); err != nil {
		return nil
	}

	return &raw
}

// stripCodeFences removes surrounding markdown fences like ```json ... ```
func stripCodeFences(response string) string {
	if !strings.HasPrefix(response, "```") {
		return response
	}

	lines := strings.Split(response, "\n")
	start, end := -1, -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "```" || strings.HasPrefix(trimmed, "```") {
			if start == -1 {
				start = i + 1
			} else {
				end = i
				break
			}
		}
	}

	if start == -1 || end == -1 || start > end {
		return strings.Trim(response, "`")
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// clean trims and normalizes the raw fields. An all-null result means the
// oracle judged the message a non-event.
func (e *Extractor) clean(raw *rawFact) *CandidateFact {
	fact := &CandidateFact{
		CompanyName: cleanField(raw.CompanyName),
		JobTitle:    cleanField(raw.JobTitle),
		Platform:    strings.ToLower(cleanField(raw.Platform)),
		Status:      strings.ToLower(cleanField(raw.Status)),
	}

	if !models.ApplicationStatus(fact.Status).IsValid() {
		fact.Status = ""
	}

	if dateStr := cleanField(raw.AppliedOn); dateStr != "" {
		if ts := parseAppliedOn(dateStr); ts != nil {
			fact.AppliedOn = ts
		}
	}

	if fact.CompanyName == "" && fact.JobTitle == "" && fact.Platform == "" && fact.Status == "" {
		return nil
	}

	return fact
}

func cleanField(value *string) string {
	if value == nil {
		return ""
	}
	trimmed := strings.TrimSpace(*value)
	if strings.EqualFold(trimmed, "null") {
		return ""
	}
	return trimmed
}

func parseAppliedOn(value string) *time.Time {
	for _, format := range appliedOnFormats {
		if ts, err := time.Parse(format, value); err == nil {
			return &ts
		}
	}
	return nil
}
