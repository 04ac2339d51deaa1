package portal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nhle/jobportal/internal/model"
)

// MentorSessions lists the sessions offered to an applicant.
func (c *Client) MentorSessions(ctx context.Context, userID model.ID) ([]model.MentorSession, error) {
	raw, err := c.GetRaw(ctx, "/mentor-sessions/applicant/"+seg(userID))
	if err != nil {
		return nil, fmt.Errorf("listing mentor sessions: %w", err)
	}
	sessions, err := decodeList[model.MentorSession](raw)
	if err != nil {
		return nil, fmt.Errorf("listing mentor sessions: %w", err)
	}
	return sessions, nil
}

// CreateHackathon publishes a new hackathon and returns it as stored.
func (c *Client) CreateHackathon(ctx context.Context, in model.HackathonInput) (*model.Hackathon, error) {
	var raw json.RawMessage
	if err := c.Post(ctx, "/hackathons", in, &raw); err != nil {
		return nil, fmt.Errorf("creating hackathon: %w", err)
	}
	h, err := decodeObject[model.Hackathon](raw)
	if err != nil {
		return nil, fmt.Errorf("creating hackathon: %w", err)
	}
	return &h, nil
}

// Hackathons lists the hackathons created by a recruiter.
func (c *Client) Hackathons(ctx context.Context, recruiterID model.ID) ([]model.Hackathon, error) {
	raw, err := c.GetRaw(ctx, "/hackathons/recruiter/"+seg(recruiterID))
	if err != nil {
		return nil, fmt.Errorf("listing hackathons: %w", err)
	}
	list, err := decodeList[model.Hackathon](raw)
	if err != nil {
		return nil, fmt.Errorf("listing hackathons: %w", err)
	}
	return list, nil
}

// Hackathon fetches a single hackathon.
func (c *Client) Hackathon(ctx context.Context, id model.ID) (*model.Hackathon, error) {
	raw, err := c.GetRaw(ctx, "/hackathons/"+seg(id))
	if err != nil {
		return nil, fmt.Errorf("fetching hackathon %s: %w", id, err)
	}
	h, err := decodeObject[model.Hackathon](raw)
	if err != nil {
		return nil, fmt.Errorf("fetching hackathon %s: %w", id, err)
	}
	return &h, nil
}

// Registrations lists sign-ups for a hackathon.
func (c *Client) Registrations(ctx context.Context, id model.ID) ([]model.Registration, error) {
	raw, err := c.GetRaw(ctx, "/hackathons/"+seg(id)+"/registrations")
	if err != nil {
		return nil, fmt.Errorf("listing registrations for %s: %w", id, err)
	}
	regs, err := decodeList[model.Registration](raw)
	if err != nil {
		return nil, fmt.Errorf("listing registrations for %s: %w", id, err)
	}
	return regs, nil
}

// Submissions lists projects handed in for a hackathon.
func (c *Client) Submissions(ctx context.Context, id model.ID) ([]model.Submission, error) {
	raw, err := c.GetRaw(ctx, "/hackathons/"+seg(id)+"/submissions")
	if err != nil {
		return nil, fmt.Errorf("listing submissions for %s: %w", id, err)
	}
	subs, err := decodeList[model.Submission](raw)
	if err != nil {
		return nil, fmt.Errorf("listing submissions for %s: %w", id, err)
	}
	return subs, nil
}

// DeclareWinners publishes the final ranking.
func (c *Client) DeclareWinners(ctx context.Context, id model.ID, winners []model.Winner) error {
	if len(winners) == 0 {
		return fmt.Errorf("declaring winners for %s: no winners selected", id)
	}
	if err := c.Post(ctx, "/hackathons/"+seg(id)+"/winners", winners, nil); err != nil {
		return fmt.Errorf("declaring winners for %s: %w", id, err)
	}
	return nil
}

// DeleteHackathon removes a hackathon the recruiter owns.
func (c *Client) DeleteHackathon(ctx context.Context, id model.ID) error {
	if err := c.Delete(ctx, "/hackathons/"+seg(id)); err != nil {
		return fmt.Errorf("deleting hackathon %s: %w", id, err)
	}
	return nil
}
