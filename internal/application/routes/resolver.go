// Package routes maps a notification's semantic type and the viewer's
// role onto a navigation target in the HR frontend.
package routes

import "github.com/hrm-gateway/internal/domain"

// Defaults returned for source types missing from a table.
const (
	EmployeeDefault  = "/employee/dashboard"
	AdminLikeDefault = "/admin/dashboard"
)

var employeeRoutes = map[domain.SourceType]string{
	domain.SourceLeave:        "/employee/leave",
	domain.SourceAttendance:   "/employee/attendance",
	domain.SourcePerformance:  "/employee/performance",
	domain.SourceAnnouncement: "/employee/announcements",
	domain.SourceTraining:     "/employee/training",
	domain.SourceDocument:     "/employee/documents",
}

var adminRoutes = map[domain.SourceType]string{
	domain.SourceLeave:        "/admin/leave-management",
	domain.SourceAttendance:   "/admin/attendance",
	domain.SourcePerformance:  "/admin/performance",
	domain.SourceAnnouncement: "/admin/announcements",
	domain.SourceEmployee:     "/admin/employees",
	domain.SourceRecruitment:  "/admin/recruitment",
	domain.SourceTraining:     "/admin/training",
	domain.SourceDocument:     "/admin/documents",
}

// Resolve returns the navigation path for a source type as seen by the
// given role. Employees get the employee table; every other role is
// admin-like. Unmapped types fall back to the table's dashboard.
func Resolve(sourceType domain.SourceType, role string) string {
	if role == domain.RoleEmployee {
		if path, ok := employeeRoutes[sourceType]; ok {
			return path
		}
		return EmployeeDefault
	}
	if path, ok := adminRoutes[sourceType]; ok {
		return path
	}
	return AdminLikeDefault
}
