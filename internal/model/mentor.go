package model

import "encoding/json"

// MentorSession is a scheduled mentoring slot visible to an applicant.
// Date and StartTime arrive either as int arrays ([2024,1,1], [10,0]) or
// as ISO-like strings, depending on the backend serializer.
type MentorSession struct {
	ID          ID              `json:"id"`
	Title       string          `json:"title"`
	MentorName  string          `json:"mentorName"`
	Description string          `json:"description"`
	Date        json.RawMessage `json:"date"`
	StartTime   json.RawMessage `json:"startTime"`
	DurationMin int             `json:"duration"`
	MeetingLink string          `json:"meetingLink"`
	Topics      []string        `json:"topics,omitempty"`
}

// Key returns the identity used for local list splicing.
func (s MentorSession) Key() string { return s.ID.String() }
