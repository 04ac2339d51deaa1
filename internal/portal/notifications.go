package portal

import (
	"context"
	"fmt"

	"github.com/nhle/jobportal/internal/model"
)

// Notifications lists the user's inbox, newest first as the server sends it.
func (c *Client) Notifications(ctx context.Context, userID model.ID) ([]model.Notification, error) {
	raw, err := c.GetRaw(ctx, "/notifications/"+seg(userID))
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	items, err := decodeList[model.Notification](raw)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return items, nil
}

// UnreadCount returns how many notifications are unread.
func (c *Client) UnreadCount(ctx context.Context, userID model.ID) (int, error) {
	raw, err := c.GetRaw(ctx, "/notifications/"+seg(userID)+"/unread-count")
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	n, err := decodeCount(raw)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationRead flags a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id model.ID) error {
	if err := c.Put(ctx, "/notifications/"+seg(id)+"/read", nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id model.ID) error {
	if err := c.Delete(ctx, "/notifications/"+seg(id)); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// DeleteAllNotifications clears the user's inbox.
func (c *Client) DeleteAllNotifications(ctx context.Context, userID model.ID) error {
	if err := c.Delete(ctx, "/notifications/user/"+seg(userID)); err != nil {
		return fmt.Errorf("deleting all notifications: %w", err)
	}
	return nil
}
