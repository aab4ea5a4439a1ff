package mail

import (
	"fmt"
	"strings"
)

// platformPatterns match sender domains of the common applicant tracking
// systems.
var platformPatterns = []string{
	"workday",
	"greenhouse",
	"lever",
	"bamboohr",
	"smartrecruiters",
	"icims",
	"jobvite",
	"successfactors",
	"taleo",
	"zenefits",
	"applicantstack",
	"recruitee",
	"personio",
	"adp",
	"paycom",
	"ultipro",
}

// subjectPatterns match subject lines of application lifecycle mail.
var subjectPatterns = []string{
	"application received",
	"thank you for your application",
	"application confirmation",
	"your application has been received",
	"application submitted",
	"job application received",
	"application status update",
	"next steps",
	"interview invitation",
	"application update",
}

// BuildQuery builds the provider search expression for job-related mail
// within the lookback window.
func BuildQuery(days int) string {
	parts := make([]string, 0, len(platformPatterns)+len(subjectPatterns))
	for _, platform := range platformPatterns {
		parts = append(parts, "from:"+platform)
	}
	for _, subject := range subjectPatterns {
		parts = append(parts, fmt.Sprintf("subject:%q", subject))
	}
	return fmt.Sprintf("(%s) newer_than:%dd", strings.Join(parts, " OR "), days)
}
