package model

import "encoding/json"

// Notification is an inbox entry for the signed-in user.
type Notification struct {
	// ID is the backend identifier.
	ID ID `json:"id"`

	// Subject is the short headline, when the backend provides one.
	Subject string `json:"subject"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Link optionally points at the related job or hackathon.
	Link string `json:"link,omitempty"`

	// Read indicates whether the user has opened this notification.
	Read bool `json:"isRead"`

	// CreatedAt is the server timestamp, as an ISO string or int array.
	CreatedAt json.RawMessage `json:"createdAt,omitempty"`
}

// Key returns the identity used for local list splicing.
func (n Notification) Key() string { return n.ID.String() }
