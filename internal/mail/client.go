package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

var (
	// ErrSearchFailed indicates the provider rejected or failed a search
	ErrSearchFailed = errors.New("mail search failed")
	// ErrFetchFailed indicates a single message could not be fetched
	ErrFetchFailed = errors.New("mail fetch failed")
)

// errStopPagination aborts page draining once the caller's cap is reached.
var errStopPagination = errors.New("pagination cap reached")

// Client wraps the Gmail API for one authorized mailbox.
type Client struct {
	svc *gmail.Service
}

// NewClient builds a Gmail client from an OAuth token. The token source
// refreshes access tokens transparently; a revoked refresh token surfaces
// as an error on the first call, not here.
func NewClient(ctx context.Context, oauthConfig *oauth2.Config, token *oauth2.Token) (*Client, error) {
	httpClient := oauthConfig.Client(ctx, token)
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Search returns the ids of messages matching the query, draining
// provider-side pagination up to limit results. A non-positive limit
// means no cap.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	var ids []string

	call := c.svc.Users.Messages.List(gmailUser).Q(query).MaxResults(100)
	err := call.Pages(ctx, func(page *gmail.ListMessagesResponse) error {
		for _, m := range page.Messages {
			ids = append(ids, m.Id)
			if limit > 0 && len(ids) >= limit {
				return errStopPagination
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopPagination) {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	return ids, nil
}

// Fetch retrieves one message and normalizes it to a CandidateMessage.
// A message with unreadable parts still comes back with an empty body;
// only a failed provider call fails the fetch.
func (c *Client) Fetch(ctx context.Context, messageID string) (*CandidateMessage, error) {
	msg, err := c.svc.Users.Messages.Get(gmailUser, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: message %s: %v", ErrFetchFailed, messageID, err)
	}

	candidate := &CandidateMessage{
		MessageID: msg.Id,
		ThreadID:  msg.ThreadId,
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "Subject":
				candidate.Subject = header.Value
			case "From":
				candidate.Sender = header.Value
			case "Date":
				candidate.SentAt = header.Value
			}
		}
		candidate.Body = flattenPayload(msg.Payload)
	}

	// Some messages only expose their body through the raw format
	if candidate.Body == "" {
		candidate.Body = c.fetchRawBody(ctx, messageID)
	}

	return candidate, nil
}

func (c *Client) fetchRawBody(ctx context.Context, messageID string) string {
	msg, err := c.svc.Users.Messages.Get(gmailUser, messageID).Format("raw").Context(ctx).Do()
	if err != nil || msg.Raw == "" {
		return ""
	}
	raw, err := base64.URLEncoding.DecodeString(msg.Raw)
	if err != nil {
		return ""
	}
	return flattenRaw(raw)
}
