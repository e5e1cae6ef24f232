// Package authz decides admin capability and holds the admin "view as user" preference.
package authz

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/auth"
)

// DefaultAdminEmails is the legacy allow-list used when ADMIN_EMAILS is unset.
var DefaultAdminEmails = []string{"bdteam@flytbase.com"}

// RoleLookup reports whether the database grants userID the admin role.
type RoleLookup interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Service is the single admin capability check.
type Service struct {
	roles  RoleLookup
	emails map[string]bool
	prefs  PreferenceStore
	log    *zap.Logger
}

func NewService(roles RoleLookup, adminEmails []string, prefs PreferenceStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	emails := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails[e] = true
		}
	}
	return &Service{roles: roles, emails: emails, prefs: prefs, log: log}
}

// IsAdmin walks the capability tiers in order: database role, email
// allow-list, then the app_metadata role. When the database lookup fails only
// the email allow-list is consulted.
func (s *Service) IsAdmin(ctx context.Context, id auth.Identity) bool {
	if id.UserID == "" {
		return false
	}
	if s.roles != nil {
		ok, err := s.roles.IsAdmin(ctx, id.UserID)
		if err != nil {
			s.log.Warn("admin role lookup failed, using email allow-list", zap.String("user_id", id.UserID), zap.Error(err))
			return s.emailAllowed(id.Email)
		}
		if ok {
			return true
		}
	}
	if s.emailAllowed(id.Email) {
		return true
	}
	return id.MetadataRole == "admin"
}

func (s *Service) emailAllowed(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	return email != "" && s.emails[email]
}

// AllowAdmin implements auth.AdminGuard.
func (s *Service) AllowAdmin(ctx context.Context, id auth.Identity) error {
	if !s.IsAdmin(ctx, id) {
		return auth.ErrNotAdmin
	}
	if s.prefs != nil {
		viewing, err := s.prefs.ViewAsUser(ctx, id.UserID)
		if err != nil {
			s.log.Warn("view preference read failed", zap.String("user_id", id.UserID), zap.Error(err))
		} else if viewing {
			return auth.ErrViewingAsUser
		}
	}
	return nil
}

// Status is what the learner UI needs to render admin affordances.
type Status struct {
	IsAdmin    bool `json:"isAdmin"`
	ViewAsUser bool `json:"viewAsUser"`
}

func (s *Service) Status(ctx context.Context, id auth.Identity) (Status, error) {
	st := Status{IsAdmin: s.IsAdmin(ctx, id)}
	if !st.IsAdmin || s.prefs == nil {
		return st, nil
	}
	v, err := s.prefs.ViewAsUser(ctx, id.UserID)
	if err != nil {
		return st, err
	}
	st.ViewAsUser = v
	return st, nil
}

// SetViewAsUser stores the preference for an admin. Non-admins get auth.ErrNotAdmin.
func (s *Service) SetViewAsUser(ctx context.Context, id auth.Identity, v bool) (Status, error) {
	if !s.IsAdmin(ctx, id) {
		return Status{}, auth.ErrNotAdmin
	}
	if s.prefs == nil {
		return Status{IsAdmin: true}, nil
	}
	if err := s.prefs.SetViewAsUser(ctx, id.UserID, v); err != nil {
		return Status{}, err
	}
	return Status{IsAdmin: true, ViewAsUser: v}, nil
}
