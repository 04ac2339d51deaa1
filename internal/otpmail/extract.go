package otpmail

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"
)

var (
	subjectPattern = regexp.MustCompile(`(?i)OTP|verification|code`)
	codePattern    = regexp.MustCompile(`(?:^|\D)(\d{6})(?:\D|$)`)
	stylePattern   = regexp.MustCompile(`(?is)<(style|script)[^>]*>.*?</(style|script)>`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
)

// SubjectMatches reports whether a subject looks like an OTP email.
func SubjectMatches(subject string) bool {
	return subjectPattern.MatchString(subject)
}

// ExtractCode returns the first standalone 6-digit number in body,
// falling back to the subject, or "" when there is none.
func ExtractCode(subject, body string) string {
	for _, s := range []string{body, subject} {
		if m := codePattern.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}

// MessageText parses an RFC 5322 message and returns its plain-text
// body, or the HTML body with markup removed when there is no text part.
func MessageText(raw []byte) string {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	defer mr.Close()

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}
		switch {
		case strings.HasPrefix(contentType, "text/plain") && textBody == "":
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	if strings.TrimSpace(textBody) != "" {
		return textBody
	}
	return stripHTML(htmlBody)
}

func stripHTML(s string) string {
	s = stylePattern.ReplaceAllString(s, " ")
	return tagPattern.ReplaceAllString(s, " ")
}
