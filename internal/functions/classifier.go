package functions

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/sahana-h/job-parser/internal/mail"
)

const classifierBodyLimit = 1500

const classifierPrompt = `You are an email classifier. Respond "yes" only if this email is clearly about one of the following:
- A confirmation or receipt that someone has applied to a job or internship
- An invitation or scheduling email for an interview
- A request to complete an online assessment or test for a specific role
- A rejection or update indicating the candidate is no longer being considered
- An offer of employment or a withdrawal of an application

If the email is about anything else (such as newsletters, marketing, software projects,
system alerts, account notifications, or unrelated communication), respond "no".

Output only one word: "yes" or "no".

Sender: %s
Subject: %s
Body:
%s`

// Classifier decides whether a message describes a job-application
// lifecycle event.
type Classifier struct {
	oracle Oracle
}

// NewClassifier creates a Classifier backed by the given oracle
func NewClassifier(oracle Oracle) *Classifier {
	return &Classifier{oracle: oracle}
}

// IsJobRelated returns true only when the oracle clearly answers yes.
// Oracle errors and unparseable answers count as no: a false positive
// pollutes the record set, while a missed message can still be caught by a
// later overlapping scan window.
func (c *Classifier) IsJobRelated(msg *mail.CandidateMessage) bool {
	body := truncateBody(msg.Body, classifierBodyLimit)

	prompt := fmt.Sprintf(classifierPrompt, msg.Sender, msg.Subject, body)

	response, err := c.oracle.Complete(prompt)
	if err != nil {
		log.Printf("[Classifier] oracle error for message %s, treating as not job-related: %v", msg.MessageID, err)
		return false
	}

	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "yes")
}

// truncateBody caps body at limit bytes, backing off so a multi-byte rune
// is never split at the cut.
func truncateBody(body string, limit int) string {
	if len(body) <= limit {
		return body
	}
	for limit > 0 && !utf8.RuneStart(body[limit]) {
		limit--
	}
	return body[:limit]
}
