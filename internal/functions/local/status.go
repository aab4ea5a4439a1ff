// Package local holds deterministic, rule-based fallbacks for the oracle
// calls. They never contradict a confident oracle answer; they only
// strengthen a weak one.
package local

import (
	"strings"
)

// Status phrases categorized by lifecycle stage. Matching is done on the
// lowercased body, first category with a hit wins.
var (
	rejectedPhrases = []string{
		"unfortunately",
		"not moving forward",
		"not be moving forward",
		"no longer being considered",
		"regret to inform",
		"decided to pursue other candidates",
		"position has been filled",
	}

	withdrawnPhrases = []string{
		"withdrawn",
		"withdraw your application",
		"application has been withdrawn",
	}

	offerPhrases = []string{
		"congratulations",
		"extend an offer",
		"pleased to offer",
		"offer letter",
		"offer of employment",
	}

	interviewPhrases = []string{
		"invite",
		"schedule an interview",
		"interview invitation",
		"schedule a call",
		"online assessment",
		"next round",
	}
)

// StatusFromText maps body phrases to an application status. Returns the
// empty string when no phrase matches.
func StatusFromText(text string) string {
	text = strings.ToLower(text)

	if containsAny(text, rejectedPhrases) {
		return "rejected"
	}
	if containsAny(text, withdrawnPhrases) {
		return "withdrawn"
	}
	if containsAny(text, offerPhrases) {
		return "offer"
	}
	if containsAny(text, interviewPhrases) {
		return "interview"
	}

	return ""
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
