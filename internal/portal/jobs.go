package portal

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nhle/jobportal/internal/model"
)

// jobsPath returns the list resource for a tab, e.g. /jobs/saved/42.
func jobsPath(tab model.JobTab, userID model.ID) (string, error) {
	switch tab {
	case model.JobTabRecommended, model.JobTabApplied, model.JobTabSaved:
		return "/jobs/" + string(tab) + "/" + seg(userID), nil
	default:
		return "", fmt.Errorf("unknown job tab %q", tab)
	}
}

// JobCount returns the total number of jobs in a tab.
func (c *Client) JobCount(ctx context.Context, tab model.JobTab, userID model.ID) (int, error) {
	base, err := jobsPath(tab, userID)
	if err != nil {
		return 0, err
	}
	raw, err := c.GetRaw(ctx, base+"/count")
	if err != nil {
		return 0, fmt.Errorf("counting %s jobs: %w", tab, err)
	}
	n, err := decodeCount(raw)
	if err != nil {
		return 0, fmt.Errorf("counting %s jobs: %w", tab, err)
	}
	return n, nil
}

// JobPage fetches one page of a tab. page is 0-based as the server
// expects; callers convert from the 1-based page shown on screen.
func (c *Client) JobPage(
	ctx context.Context,
	tab model.JobTab,
	userID model.ID,
	page, size int,
) ([]model.Job, error) {
	base, err := jobsPath(tab, userID)
	if err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}
	path := base + query("page", strconv.Itoa(page), "size", strconv.Itoa(size))
	raw, err := c.GetRaw(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetching %s jobs page %d: %w", tab, page, err)
	}
	jobs, err := decodeList[model.Job](raw)
	if err != nil {
		return nil, fmt.Errorf("fetching %s jobs page %d: %w", tab, page, err)
	}
	return jobs, nil
}

// SaveJob bookmarks a job for the applicant.
func (c *Client) SaveJob(ctx context.Context, userID, jobID model.ID) error {
	if err := c.Post(ctx, "/jobs/saved/"+seg(userID)+"/"+seg(jobID), nil, nil); err != nil {
		return fmt.Errorf("saving job %s: %w", jobID, err)
	}
	return nil
}

// RemoveSavedJob drops a bookmark.
func (c *Client) RemoveSavedJob(ctx context.Context, userID, jobID model.ID) error {
	if err := c.Delete(ctx, "/jobs/saved/"+seg(userID)+"/"+seg(jobID)); err != nil {
		return fmt.Errorf("removing saved job %s: %w", jobID, err)
	}
	return nil
}

// JobStatus returns application progress for an applied job.
func (c *Client) JobStatus(ctx context.Context, userID, jobID model.ID) (*model.JobStatus, error) {
	raw, err := c.GetRaw(ctx, "/jobs/applied/"+seg(userID)+"/"+seg(jobID)+"/status")
	if err != nil {
		return nil, fmt.Errorf("checking status of job %s: %w", jobID, err)
	}
	st, err := decodeObject[model.JobStatus](raw)
	if err != nil {
		return nil, fmt.Errorf("checking status of job %s: %w", jobID, err)
	}
	if st.JobID == "" {
		st.JobID = jobID
	}
	return &st, nil
}

// AlertCount returns the total number of job alerts.
func (c *Client) AlertCount(ctx context.Context, userID model.ID) (int, error) {
	raw, err := c.GetRaw(ctx, "/alerts/"+seg(userID)+"/count")
	if err != nil {
		return 0, fmt.Errorf("counting job alerts: %w", err)
	}
	n, err := decodeCount(raw)
	if err != nil {
		return 0, fmt.Errorf("counting job alerts: %w", err)
	}
	return n, nil
}

// UnseenAlertCount returns alerts not yet marked seen; it feeds the
// header badge together with UnreadCount.
func (c *Client) UnseenAlertCount(ctx context.Context, userID model.ID) (int, error) {
	raw, err := c.GetRaw(ctx, "/alerts/"+seg(userID)+"/unseen-count")
	if err != nil {
		return 0, fmt.Errorf("counting unseen job alerts: %w", err)
	}
	n, err := decodeCount(raw)
	if err != nil {
		return 0, fmt.Errorf("counting unseen job alerts: %w", err)
	}
	return n, nil
}

// AlertPage fetches one 0-based page of job alerts.
func (c *Client) AlertPage(ctx context.Context, userID model.ID, page, size int) ([]model.JobAlert, error) {
	if page < 0 {
		page = 0
	}
	path := "/alerts/" + seg(userID) + query("page", strconv.Itoa(page), "size", strconv.Itoa(size))
	raw, err := c.GetRaw(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetching job alerts page %d: %w", page, err)
	}
	alerts, err := decodeList[model.JobAlert](raw)
	if err != nil {
		return nil, fmt.Errorf("fetching job alerts page %d: %w", page, err)
	}
	return alerts, nil
}

// MarkAlertSeen flags an alert as seen.
func (c *Client) MarkAlertSeen(ctx context.Context, alertID model.ID) error {
	if err := c.Put(ctx, "/alerts/"+seg(alertID)+"/seen", nil, nil); err != nil {
		return fmt.Errorf("marking alert %s seen: %w", alertID, err)
	}
	return nil
}
