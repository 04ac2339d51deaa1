// Package otpmail reads the most recent password-reset code from the
// user's inbox so the reset view can fill it in.
package otpmail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/model"
)

// DefaultWindow is how far back messages are considered.
const DefaultWindow = 15 * time.Minute

// maxCandidates bounds how many recent envelopes are inspected.
const maxCandidates = 30

// ErrNoCode is returned when no recent message carries a code.
var ErrNoCode = errors.New("no recent OTP email found")

// AuthError indicates the IMAP server rejected the credentials.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mail login failed for %s: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Reader looks up OTP codes over IMAP.
type Reader struct {
	host     string
	port     string
	username string
	password string
	tls      bool
	window   time.Duration
	now      func() time.Time
}

// NewReader builds a Reader from the mail config and the keyring password.
func NewReader(cfg model.MailConfig, password string) *Reader {
	return &Reader{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: password,
		tls:      cfg.TLS,
		window:   DefaultWindow,
		now:      time.Now,
	}
}

// connect dials, authenticates, and closes the connection if ctx is
// cancelled while a command is in flight.
func (r *Reader) connect(ctx context.Context) (*imapclient.Client, func(), error) {
	addr := net.JoinHostPort(r.host, r.port)

	var (
		client *imapclient.Client
		err    error
	)
	if r.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = client.Close() })

	if err := client.Login(r.username, r.password).Wait(); err != nil {
		stop()
		_ = client.Close()
		return nil, nil, &AuthError{Username: r.username, Err: err}
	}

	release := func() {
		stop()
		_ = client.Logout().Wait()
	}
	return client, release, nil
}

// candidate is a recent message whose subject looks like an OTP mail.
type candidate struct {
	uid     imap.UID
	subject string
	date    time.Time
}

// LatestCode returns the 6-digit code from the newest matching message
// received within the window.
func (r *Reader) LatestCode(ctx context.Context) (string, error) {
	client, release, err := r.connect(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return "", fmt.Errorf("selecting INBOX: %w", err)
	}

	cutoff := r.now().Add(-r.window)

	// SINCE is day-granular; the exact cutoff is applied on envelopes.
	searchData, err := client.UIDSearch(&imap.SearchCriteria{Since: cutoff}, nil).Wait()
	if err != nil {
		return "", fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return "", ErrNoCode
	}
	if len(uids) > maxCandidates {
		uids = uids[len(uids)-maxCandidates:]
	}

	candidates, err := r.fetchCandidates(client, uids, cutoff)
	if err != nil {
		return "", err
	}

	for _, c := range candidates {
		body, err := fetchBody(client, c.uid)
		if err != nil {
			logger.Debug().Err(err).Uint32("uid", uint32(c.uid)).Msg("skipping unreadable OTP mail")
			continue
		}
		if code := ExtractCode(c.subject, body); code != "" {
			return code, nil
		}
	}

	return "", ErrNoCode
}

// fetchCandidates returns matching envelopes newest first.
func (r *Reader) fetchCandidates(
	client *imapclient.Client,
	uids []imap.UID,
	cutoff time.Time,
) ([]candidate, error) {
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope: true,
		UID:      true,
	})
	defer fetchCmd.Close()

	var out []candidate
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil || buf.Envelope == nil {
			continue
		}
		if !SubjectMatches(buf.Envelope.Subject) {
			continue
		}
		if !buf.Envelope.Date.IsZero() && buf.Envelope.Date.Before(cutoff) {
			continue
		}
		out = append(out, candidate{
			uid:     buf.UID,
			subject: buf.Envelope.Subject,
			date:    buf.Envelope.Date,
		})
	}

	if err := fetchCmd.Close(); err != nil {
		return out, fmt.Errorf("fetching envelopes: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].date.Equal(out[j].date) {
			return out[i].uid > out[j].uid
		}
		return out[i].date.After(out[j].date)
	})
	return out, nil
}

// fetchBody returns the readable text of one message.
func fetchBody(client *imapclient.Client, uid imap.UID) (string, error) {
	section := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	})
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return "", fmt.Errorf("message UID %d not found", uid)
	}
	buf, err := msg.Collect()
	if err != nil {
		return "", fmt.Errorf("collecting message data: %w", err)
	}

	raw := buf.FindBodySection(section)
	if raw == nil {
		return "", fmt.Errorf("message UID %d has no body", uid)
	}
	return MessageText(raw), nil
}
