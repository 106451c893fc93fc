package domain

// Holiday mirrors the upstream holiday calendar resource.
type Holiday struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	HolidayType string `json:"holiday_type"`
	Description string `json:"description"`
}
