package mail

import (
	"bytes"
	"encoding/base64"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"google.golang.org/api/gmail/v1"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
)

// stripHTML reduces an HTML body to plain text
func stripHTML(content string) string {
	content = htmlTagPattern.ReplaceAllString(content, " ")
	content = strings.ReplaceAll(content, "&nbsp;", " ")
	content = strings.ReplaceAll(content, "&amp;", "&")
	content = strings.ReplaceAll(content, "&lt;", "<")
	content = strings.ReplaceAll(content, "&gt;", ">")
	content = whitespacePattern.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// flattenPayload resolves a structured message payload to plain text.
// text/plain parts win; text/html is kept as a fallback and stripped of
// markup. Nested multiparts are walked recursively and multiple text parts
// concatenate in document order. Malformed parts degrade to nothing.
func flattenPayload(payload *gmail.MessagePart) string {
	var plain, html strings.Builder
	collectParts(payload, &plain, &html)

	if body := strings.TrimSpace(plain.String()); body != "" {
		return body
	}
	return stripHTML(html.String())
}

func collectParts(part *gmail.MessagePart, plain, html *strings.Builder) {
	if part == nil {
		return
	}

	switch {
	case strings.HasPrefix(part.MimeType, "multipart/"):
		for _, child := range part.Parts {
			collectParts(child, plain, html)
		}
	case part.MimeType == "text/plain":
		plain.WriteString(decodePartBody(part))
	case part.MimeType == "text/html":
		html.WriteString(decodePartBody(part))
	default:
		// Some providers nest text parts under unexpected containers
		for _, child := range part.Parts {
			collectParts(child, plain, html)
		}
	}
}

func decodePartBody(part *gmail.MessagePart) string {
	if part.Body == nil || part.Body.Data == "" {
		return ""
	}
	data, err := base64.URLEncoding.DecodeString(part.Body.Data)
	if err != nil {
		return ""
	}
	return string(data)
}

// flattenRaw parses full RFC 822 bytes and flattens them the same way.
// Used when the structured payload carried no inline body data.
func flattenRaw(raw []byte) string {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return ""
	}

	var plain, html strings.Builder
	collectEntity(entity, &plain, &html)

	if body := strings.TrimSpace(plain.String()); body != "" {
		return body
	}
	return stripHTML(html.String())
}

func collectEntity(entity *message.Entity, plain, html *strings.Builder) {
	if entity == nil {
		return
	}

	mediaType, _, _ := entity.Header.ContentType()

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := entity.MultipartReader()
		if mr == nil {
			return
		}
		for {
			child, err := mr.NextPart()
			if err != nil {
				break
			}
			collectEntity(child, plain, html)
		}
		return
	}

	switch mediaType {
	case "text/plain":
		if body, err := io.ReadAll(entity.Body); err == nil {
			plain.Write(body)
		}
	case "text/html":
		if body, err := io.ReadAll(entity.Body); err == nil {
			html.Write(body)
		}
	}
}
