package hrapi

import (
	"context"

	"github.com/hrm-gateway/internal/domain"
)

// HolidayAPI provides read access to the holiday calendar.
type HolidayAPI struct {
	client *Client
}

func NewHolidayAPI(client *Client) *HolidayAPI {
	return &HolidayAPI{client: client}
}

// List fetches the full holiday calendar. The trailing slash matters to
// the upstream router.
func (a *HolidayAPI) List(ctx context.Context) ([]domain.Holiday, error) {
	var out []domain.Holiday
	if err := a.client.get(ctx, "/api/holidays/", &out); err != nil {
		return nil, err
	}
	return out, nil
}
