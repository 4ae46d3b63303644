package admin

import "time"

// UserInfoResponse is the HTTP response DTO for user info.
type UserInfoResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Active     bool       `json:"active"`
	LastActive *time.Time `json:"last_active,omitempty"`
}

// UsersListResponse wraps the list of users for HTTP response.
type UsersListResponse struct {
	Users []*UserInfoResponse `json:"users"`
	Total int                 `json:"total"`
}

type AuditEventResponse struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Action     string    `json:"action"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Source     string    `json:"source,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Device     string    `json:"device,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}

type AuditListResponse struct {
	Events []AuditEventResponse `json:"events"`
}

// DashboardResponse summarises accounts and recent authentication activity.
type DashboardResponse struct {
	Viewer       string               `json:"viewer"`
	TotalUsers   int                  `json:"total_users"`
	ActiveUsers  int                  `json:"active_users"`
	UsersByRole  map[string]int       `json:"users_by_role"`
	RecentEvents []AuditEventResponse `json:"recent_events"`
	DeniedRecent int                  `json:"denied_recent"`
	FailedLogins int                  `json:"failed_logins_recent"`
}
