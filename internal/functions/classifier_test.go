package functions

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sahana-h/job-parser/internal/mail"
)

// fakeOracle returns a canned response or error and remembers the last prompt
type fakeOracle struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeOracle) Complete(prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.response, f.err
}

func testMessage(body string) *mail.CandidateMessage {
	return &mail.CandidateMessage{
		MessageID: "msg-1",
		Subject:   "Thank you for applying",
		Sender:    "no-reply@myworkday.com",
		SentAt:    "Mon, 02 Jan 2006 15:04:05 -0700",
		Body:      body,
	}
}

func TestIsJobRelated(t *testing.T) {
	cases := []struct {
		name     string
		response string
		err      error
		want     bool
	}{
		{"plain_yes", "yes", nil, true},
		{"yes_with_noise", "Yes, this is a job application confirmation.", nil, true},
		{"yes_with_whitespace", "  YES\n", nil, true},
		{"plain_no", "no", nil, false},
		{"no_with_noise", "No - this is a newsletter", nil, false},
		{"unparseable", "I cannot determine this", nil, false},
		{"empty", "", nil, false},
		{"oracle_error", "", errors.New("rate limited"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			oracle := &fakeOracle{response: tc.response, err: tc.err}
			classifier := NewClassifier(oracle)

			if got := classifier.IsJobRelated(testMessage("We received your application.")); got != tc.want {
				t.Errorf("IsJobRelated = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifierTruncatesBody(t *testing.T) {
	oracle := &fakeOracle{response: "yes"}
	classifier := NewClassifier(oracle)

	long := strings.Repeat("a", classifierBodyLimit*3)
	classifier.IsJobRelated(testMessage(long))

	if len(oracle.lastPrompt) > len(classifierPrompt)+classifierBodyLimit+500 {
		t.Errorf("prompt length %d suggests the body was not truncated", len(oracle.lastPrompt))
	}
}

func TestClassifierTruncationKeepsValidUTF8(t *testing.T) {
	oracle := &fakeOracle{response: "yes"}
	classifier := NewClassifier(oracle)

	// The first byte of a multi-byte rune lands exactly on the cut
	body := strings.Repeat("a", classifierBodyLimit-1) + strings.Repeat("日本語", 100)
	classifier.IsJobRelated(testMessage(body))

	if !utf8.ValidString(oracle.lastPrompt) {
		t.Error("prompt contains invalid UTF-8 after truncation")
	}
}

func TestTruncateBody(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		limit int
		want  string
	}{
		{"under_limit", "short", 10, "short"},
		{"exact_limit", "exact", 5, "exact"},
		{"ascii_cut", "abcdef", 3, "abc"},
		{"rune_straddles_cut", "ab日本", 3, "ab"},
		{"cut_on_rune_boundary", "ab日本", 5, "ab日"},
		{"multibyte_only", "日本語", 4, "日"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateBody(tc.body, tc.limit)
			if got != tc.want {
				t.Errorf("truncateBody(%q, %d) = %q, want %q", tc.body, tc.limit, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateBody(%q, %d) returned invalid UTF-8", tc.body, tc.limit)
			}
		})
	}
}
