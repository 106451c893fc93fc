package hrapi

import (
	"context"

	"github.com/hrm-gateway/internal/domain"
)

// LeaveAPI provides typed operations for the leave domain. The admin
// notification stream is role-gated upstream; the gateway enforces the
// same gate before ever issuing the call.
type LeaveAPI struct {
	client *Client
}

func NewLeaveAPI(client *Client) *LeaveAPI {
	return &LeaveAPI{client: client}
}

// ListAdminNotifications fetches pending leave-request notifications for
// admin and HR viewers. There is no mark-read endpoint for this stream.
func (a *LeaveAPI) ListAdminNotifications(ctx context.Context) ([]domain.LeaveNotification, error) {
	var out []domain.LeaveNotification
	if err := a.client.get(ctx, "/leaves/notifications", &out); err != nil {
		return nil, err
	}
	return out, nil
}
