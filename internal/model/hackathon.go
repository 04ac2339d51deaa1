package model

import (
	"encoding/json"
	"time"
)

// Hackathon is a recruiter-hosted coding event.
type Hackathon struct {
	ID                   ID              `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Theme                string          `json:"theme"`
	Company              string          `json:"company"`
	BannerURL            string          `json:"bannerUrl,omitempty"`
	Rules                string          `json:"rules,omitempty"`
	Eligibility          string          `json:"eligibility,omitempty"`
	Prize                float64         `json:"prize"`
	MaxTeamSize          int             `json:"maxTeamSize"`
	RegistrationDeadline json.RawMessage `json:"registrationDeadline,omitempty"`
	StartAt              json.RawMessage `json:"startAt,omitempty"`
	EndAt                json.RawMessage `json:"endAt,omitempty"`
	CreatedBy            ID              `json:"createdByRecruiterId"`
	RegistrationCount    int             `json:"registrationCount"`
	SubmissionCount      int             `json:"submissionCount"`
	WinnersDeclared      bool            `json:"winnersDeclared"`
}

// Key returns the identity used for local list splicing.
func (h Hackathon) Key() string { return h.ID.String() }

// HackathonInput is the payload for creating a hackathon. Times are
// serialized as local ISO timestamps without zone, as the backend expects.
type HackathonInput struct {
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Theme                string    `json:"theme"`
	Company              string    `json:"company"`
	BannerURL            string    `json:"bannerUrl,omitempty"`
	Rules                string    `json:"rules,omitempty"`
	Eligibility          string    `json:"eligibility,omitempty"`
	Prize                float64   `json:"prize"`
	MaxTeamSize          int       `json:"maxTeamSize"`
	RegistrationDeadline time.Time `json:"-"`
	StartAt              time.Time `json:"-"`
	EndAt                time.Time `json:"-"`
	CreatedBy            ID        `json:"createdByRecruiterId"`
}

// LocalTimestamp is the zone-less layout used on the wire for times.
const LocalTimestamp = "2006-01-02T15:04:05"

// MarshalJSON renders the time fields in LocalTimestamp layout.
func (in HackathonInput) MarshalJSON() ([]byte, error) {
	type alias HackathonInput
	return json.Marshal(struct {
		alias
		RegistrationDeadline string `json:"registrationDeadline"`
		StartAt              string `json:"startAt"`
		EndAt                string `json:"endAt"`
	}{
		alias:                alias(in),
		RegistrationDeadline: in.RegistrationDeadline.Format(LocalTimestamp),
		StartAt:              in.StartAt.Format(LocalTimestamp),
		EndAt:                in.EndAt.Format(LocalTimestamp),
	})
}

// Registration is a team or individual signed up for a hackathon.
type Registration struct {
	ID           ID              `json:"id"`
	HackathonID  ID              `json:"hackathonId"`
	ApplicantID  ID              `json:"applicantId"`
	Name         string          `json:"applicantName"`
	Email        string          `json:"applicantEmail"`
	TeamName     string          `json:"teamName"`
	TeamSize     int             `json:"teamSize"`
	RegisteredAt json.RawMessage `json:"registeredAt,omitempty"`
}

// Key returns the identity used for local list splicing.
func (r Registration) Key() string { return r.ID.String() }

// Submission is a project handed in for a hackathon.
type Submission struct {
	ID          ID              `json:"id"`
	HackathonID ID              `json:"hackathonId"`
	ApplicantID ID              `json:"applicantId"`
	TeamName    string          `json:"teamName"`
	ProjectName string          `json:"projectName"`
	Summary     string          `json:"projectSummary"`
	GithubURL   string          `json:"githubLink"`
	DemoURL     string          `json:"demoLink"`
	Score       float64         `json:"score"`
	SubmittedAt json.RawMessage `json:"submittedAt,omitempty"`
}

// Key returns the identity used for local list splicing.
func (s Submission) Key() string { return s.ID.String() }

// Winner places a submission at a rank when results are declared.
type Winner struct {
	SubmissionID ID  `json:"submissionId"`
	Position     int `json:"position"`
}
