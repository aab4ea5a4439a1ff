package mail

// CandidateMessage is one normalized inbound mail item, immutable once
// fetched. SentAt stays a raw header string; parsing it is the consumer's
// concern (see ParseReceivedAt).
type CandidateMessage struct {
	MessageID string
	ThreadID  string
	SentAt    string
	Subject   string
	Sender    string
	Body      string
}
