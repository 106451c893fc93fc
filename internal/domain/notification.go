package domain

import "time"

// Stream identifies which upstream endpoint produced a notification.
// Numeric ids are only unique within a stream, so merged views must key
// records by (Stream, ID), never by ID alone.
type Stream string

const (
	StreamLeave   Stream = "leave"
	StreamGeneral Stream = "general"
)

// SourceType is the semantic category of a notification, used for route
// resolution and display grouping.
type SourceType string

const (
	SourceLeave        SourceType = "leave"
	SourceAttendance   SourceType = "attendance"
	SourcePerformance  SourceType = "performance"
	SourceAnnouncement SourceType = "announcement"
	SourceEmployee     SourceType = "employee"
	SourceRecruitment  SourceType = "recruitment"
	SourceTraining     SourceType = "training"
	SourceDocument     SourceType = "document"
	SourceOther        SourceType = "other"
)

// ParseSourceType maps an upstream type string onto a known SourceType,
// falling back to SourceOther for anything unrecognised.
func ParseSourceType(s string) SourceType {
	switch t := SourceType(s); t {
	case SourceLeave, SourceAttendance, SourcePerformance, SourceAnnouncement,
		SourceEmployee, SourceRecruitment, SourceTraining, SourceDocument:
		return t
	default:
		return SourceOther
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority defaults to medium for empty or unknown values.
func ParsePriority(s string) Priority {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	default:
		return PriorityMedium
	}
}

// NotificationRecord is the unified feed entity produced by merging the
// per-stream payloads below.
type NotificationRecord struct {
	ID         int64      `json:"id"`
	Stream     Stream     `json:"source"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	SourceType SourceType `json:"source_type"`
	Priority   Priority   `json:"priority"`
	IsRead     bool       `json:"is_read"`
	CreatedAt  time.Time  `json:"created"`
	Route      string     `json:"route,omitempty"`
}

// GeneralNotification is the upstream payload of GET /notifications.
type GeneralNotification struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	NotificationType string    `json:"notification_type"`
	Priority         string    `json:"priority"`
	IsRead           bool      `json:"is_read"`
	Route            string    `json:"route,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Record converts the payload into the unified feed shape. The mapping is
// total: unknown types become SourceOther, missing priority becomes medium.
// Route and IsRead overrides are layered on by the aggregator.
func (n GeneralNotification) Record() NotificationRecord {
	return NotificationRecord{
		ID:         n.ID,
		Stream:     StreamGeneral,
		Title:      n.Title,
		Message:    n.Message,
		SourceType: ParseSourceType(n.NotificationType),
		Priority:   ParsePriority(n.Priority),
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt,
		Route:      n.Route,
	}
}

// LeaveNotification is the upstream payload of the admin leave stream.
// The endpoint has no mark-read counterpart, so read state for these
// records lives only in the session's local override set.
type LeaveNotification struct {
	ID           int64     `json:"id"`
	EmployeeName string    `json:"employee_name"`
	LeaveType    string    `json:"leave_type"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Record converts the payload into the unified feed shape. Leave-stream
// records always map to SourceLeave and arrive unread.
func (n LeaveNotification) Record() NotificationRecord {
	title := "Leave request"
	if n.EmployeeName != "" {
		title = n.EmployeeName + " requested leave"
	}
	msg := n.LeaveType
	if n.StartDate != "" && n.EndDate != "" {
		msg = n.LeaveType + " from " + n.StartDate + " to " + n.EndDate
	}
	return NotificationRecord{
		ID:         n.ID,
		Stream:     StreamLeave,
		Title:      title,
		Message:    msg,
		SourceType: SourceLeave,
		Priority:   PriorityMedium,
		CreatedAt:  n.CreatedAt,
	}
}

// CreateNotificationRequest is the POST /notifications input.
type CreateNotificationRequest struct {
	Title            string `json:"title" validate:"required"`
	Message          string `json:"message" validate:"required"`
	NotificationType string `json:"notification_type" validate:"required"`
	Priority         string `json:"priority" validate:"omitempty,oneof=low medium high"`
	EmployeeID       *int64 `json:"employee_id"`
}
