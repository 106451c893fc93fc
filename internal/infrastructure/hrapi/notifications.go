package hrapi

import (
	"context"
	"fmt"

	"github.com/hrm-gateway/internal/domain"
)

// NotificationAPI provides typed operations for the general notification
// resource.
type NotificationAPI struct {
	client *Client
}

func NewNotificationAPI(client *Client) *NotificationAPI {
	return &NotificationAPI{client: client}
}

// List fetches every notification visible to the authenticated user.
func (a *NotificationAPI) List(ctx context.Context) ([]domain.GeneralNotification, error) {
	var out []domain.GeneralNotification
	if err := a.client.get(ctx, "/notifications", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead flags a single notification as read. The endpoint is idempotent.
func (a *NotificationAPI) MarkRead(ctx context.Context, id int64) error {
	return a.client.put(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

// MarkAllRead flags every notification for the user as read.
func (a *NotificationAPI) MarkAllRead(ctx context.Context) error {
	return a.client.put(ctx, "/notifications/mark-all-read", nil, nil)
}

// Create posts a new notification and returns the stored record.
func (a *NotificationAPI) Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.GeneralNotification, error) {
	var out domain.GeneralNotification
	if err := a.client.post(ctx, "/notifications", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a notification.
func (a *NotificationAPI) Delete(ctx context.Context, id int64) error {
	return a.client.delete(ctx, fmt.Sprintf("/notifications/%d", id))
}
