package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/example/drone-academy/internal/platform/auth"
)

type stubRoles struct {
	admin bool
	err   error
	calls int
}

func (s *stubRoles) IsAdmin(context.Context, string) (bool, error) {
	s.calls++
	return s.admin, s.err
}

func TestIsAdmin_Tiers(t *testing.T) {
	emails := []string{"bdteam@flytbase.com"}
	cases := []struct {
		name  string
		roles *stubRoles
		id    auth.Identity
		want  bool
	}{
		{"no user", &stubRoles{admin: true}, auth.Identity{}, false},
		{"database role", &stubRoles{admin: true}, auth.Identity{UserID: "u1", Email: "pilot@x.io"}, true},
		{"email allow-list", &stubRoles{}, auth.Identity{UserID: "u1", Email: "BDTeam@FlytBase.com"}, true},
		{"metadata role", &stubRoles{}, auth.Identity{UserID: "u1", Email: "pilot@x.io", MetadataRole: "admin"}, true},
		{"plain learner", &stubRoles{}, auth.Identity{UserID: "u1", Email: "pilot@x.io", MetadataRole: "student"}, false},
		{"lookup error uses email", &stubRoles{err: errors.New("rpc down")}, auth.Identity{UserID: "u1", Email: "bdteam@flytbase.com"}, true},
		{"lookup error ignores metadata", &stubRoles{err: errors.New("rpc down")}, auth.Identity{UserID: "u1", Email: "pilot@x.io", MetadataRole: "admin"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.roles, emails, nil, nil)
			if got := svc.IsAdmin(context.Background(), tc.id); got != tc.want {
				t.Fatalf("IsAdmin = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsAdmin_NoUserSkipsLookup(t *testing.T) {
	roles := &stubRoles{admin: true}
	NewService(roles, nil, nil, nil).IsAdmin(context.Background(), auth.Identity{})
	if roles.calls != 0 {
		t.Fatalf("lookup should not run without a user, ran %d times", roles.calls)
	}
}

func TestAllowAdmin_ViewAsUser(t *testing.T) {
	prefs := NewMemoryPreferences()
	svc := NewService(NewMemoryRoles("admin-1"), nil, prefs, nil)
	ctx := context.Background()
	admin := auth.Identity{UserID: "admin-1"}

	if err := svc.AllowAdmin(ctx, admin); err != nil {
		t.Fatalf("admin should be allowed: %v", err)
	}
	if err := svc.AllowAdmin(ctx, auth.Identity{UserID: "u2"}); !errors.Is(err, auth.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}

	st, err := svc.SetViewAsUser(ctx, admin, true)
	if err != nil || !st.ViewAsUser {
		t.Fatalf("set view: %+v %v", st, err)
	}
	if err := svc.AllowAdmin(ctx, admin); !errors.Is(err, auth.ErrViewingAsUser) {
		t.Fatalf("expected ErrViewingAsUser, got %v", err)
	}
	if st, _ := svc.Status(ctx, admin); !st.IsAdmin || !st.ViewAsUser {
		t.Fatalf("unexpected status %+v", st)
	}

	_, _ = svc.SetViewAsUser(ctx, admin, false)
	if err := svc.AllowAdmin(ctx, admin); err != nil {
		t.Fatalf("admin view restored: %v", err)
	}

	if _, err := svc.SetViewAsUser(ctx, auth.Identity{UserID: "u2"}, true); !errors.Is(err, auth.ErrNotAdmin) {
		t.Fatalf("learners cannot toggle the admin view, got %v", err)
	}
}
