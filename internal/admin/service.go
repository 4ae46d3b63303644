// Package admin serves the operator dashboard: accounts and recent
// authentication activity.
package admin

import (
	"context"
	"time"

	"bellgas/internal/audit"
	id "bellgas/pkg/domain"
	dErrors "bellgas/pkg/domain-errors"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

type UserStore interface {
	ListAll(ctx context.Context) ([]*AdminUser, error)
}

type AuditStore interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Service struct {
	users UserStore
	audit AuditStore
}

func NewService(users UserStore, auditStore AuditStore) *Service {
	return &Service{users: users, audit: auditStore}
}

// ListUsers returns every account with its most recent successful login.
func (s *Service) ListUsers(ctx context.Context) (*UsersListResponse, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}

	resp := &UsersListResponse{Users: make([]*UserInfoResponse, 0, len(users)), Total: len(users)}
	for _, u := range users {
		events, err := s.audit.ListByUser(ctx, u.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit events")
		}
		resp.Users = append(resp.Users, &UserInfoResponse{
			ID:         u.ID.String(),
			Email:      u.Email,
			Name:       u.Name,
			Role:       u.Role.String(),
			Active:     u.Active,
			LastActive: lastLogin(events),
		})
	}
	return resp, nil
}

// RecentEvents returns up to limit events, newest first. Zero selects the
// default page size.
func (s *Service) RecentEvents(ctx context.Context, limit int) (*AuditListResponse, error) {
	if limit == 0 {
		limit = defaultRecentLimit
	}
	if limit < 0 || limit > maxRecentLimit {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 200")
	}
	events, err := s.audit.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return &AuditListResponse{Events: toEventResponses(events)}, nil
}

func (s *Service) Dashboard(ctx context.Context, viewer string) (*DashboardResponse, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	events, err := s.audit.ListRecent(ctx, defaultRecentLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}

	resp := &DashboardResponse{
		Viewer:       viewer,
		TotalUsers:   len(users),
		UsersByRole:  map[string]int{},
		RecentEvents: toEventResponses(events),
	}
	for _, u := range users {
		resp.UsersByRole[u.Role.String()]++
		if u.Active {
			resp.ActiveUsers++
		}
	}
	for _, e := range events {
		switch e.Action {
		case audit.ActionAccessDenied:
			resp.DeniedRecent++
		case audit.ActionLoginFailed:
			resp.FailedLogins++
		}
	}
	return resp, nil
}

func lastLogin(events []audit.Event) *time.Time {
	var latest *time.Time
	for _, e := range events {
		if e.Action != audit.ActionLoginSucceeded {
			continue
		}
		if latest == nil || e.OccurredAt.After(*latest) {
			t := e.OccurredAt
			latest = &t
		}
	}
	return latest
}

func toEventResponses(events []audit.Event) []AuditEventResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		r := AuditEventResponse{
			ID:         e.ID.String(),
			OccurredAt: e.OccurredAt,
			Action:     e.Action.String(),
			Email:      e.Email,
			Source:     e.Source,
			Reason:     e.Reason,
			Device:     e.Device,
			ClientIP:   e.ClientIP,
			RequestID:  e.RequestID,
		}
		if !e.UserID.IsNil() {
			r.UserID = e.UserID.String()
		}
		out = append(out, r)
	}
	return out
}
