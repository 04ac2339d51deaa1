package portal

import (
	"context"
	"fmt"

	"github.com/nhle/jobportal/internal/model"
)

// RecommendedVideos lists learning videos picked for the applicant.
func (c *Client) RecommendedVideos(ctx context.Context, userID model.ID) ([]model.Video, error) {
	raw, err := c.GetRaw(ctx, "/videos/recommended/"+seg(userID))
	if err != nil {
		return nil, fmt.Errorf("listing recommended videos: %w", err)
	}
	videos, err := decodeList[model.Video](raw)
	if err != nil {
		return nil, fmt.Errorf("listing recommended videos: %w", err)
	}
	return videos, nil
}

// TrackWatch reports viewing progress for one video.
func (c *Client) TrackWatch(ctx context.Context, p model.WatchProgress) error {
	if err := c.Post(ctx, "/videos/watch", p, nil); err != nil {
		return fmt.Errorf("tracking video %s: %w", p.VideoID, err)
	}
	return nil
}
