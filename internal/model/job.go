package model

import (
	"encoding/json"
	"strconv"
)

// JobTab identifies one of the job list categories shown to applicants.
type JobTab string

const (
	JobTabRecommended JobTab = "recommended"
	JobTabApplied     JobTab = "applied"
	JobTabSaved       JobTab = "saved"
)

// JobTabs lists the tabs in display order.
var JobTabs = []JobTab{JobTabRecommended, JobTabApplied, JobTabSaved}

// Label returns the human-readable tab title.
func (t JobTab) Label() string {
	switch t {
	case JobTabRecommended:
		return "Recommended"
	case JobTabApplied:
		return "Applied"
	case JobTabSaved:
		return "Saved"
	default:
		return string(t)
	}
}

// Job is a job posting as returned by the portal backend.
type Job struct {
	ID              ID              `json:"id"`
	Title           string          `json:"jobTitle"`
	Company         string          `json:"companyName"`
	Location        string          `json:"location"`
	EmployeeType    string          `json:"employeeType"`
	MinSalary       float64         `json:"minSalary"`
	MaxSalary       float64         `json:"maxSalary"`
	MinExperience   int             `json:"minimumExperience"`
	MaxExperience   int             `json:"maximumExperience"`
	Skills          []string        `json:"skillsRequired"`
	Description     string          `json:"description"`
	Website         string          `json:"website"`
	Saved           bool            `json:"saved"`
	Applied         bool            `json:"applied"`
	ApplicationDate json.RawMessage `json:"appliedOn,omitempty"`
	CreationDate    json.RawMessage `json:"creationDate,omitempty"`
}

// Key returns the identity used for local list splicing.
func (j Job) Key() string { return j.ID.String() }

// JobStatus is the application progress for a single applied job.
type JobStatus struct {
	JobID     ID     `json:"jobId"`
	Status    string `json:"applicationStatus"`
	UpdatedOn string `json:"changeDate"`
	Comments  string `json:"comments"`
	Interview bool   `json:"interviewScheduled"`
	Recruiter string `json:"recruiterName"`
}

// JobAlert is a recruiter-triggered alert delivered to an applicant about a
// job they applied to.
type JobAlert struct {
	ID        ID              `json:"alertsId"`
	JobID     ID              `json:"jobId"`
	JobTitle  string          `json:"jobTitle"`
	Company   string          `json:"companyName"`
	Status    string          `json:"status"`
	Seen      bool            `json:"seen"`
	ChangedAt json.RawMessage `json:"changeDate,omitempty"`
}

// Key returns the identity used for local list splicing.
func (a JobAlert) Key() string { return a.ID.String() }

// ID is a backend identifier. The portal serializes ids as numbers in
// some endpoints and strings in others; both decode into ID.
type ID string

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers so the backend's long fields
// bind correctly.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }
