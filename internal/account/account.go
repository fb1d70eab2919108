// Package account carries the caller's account and user identity through
// every core operation and checks permissions against it.
package account

import (
	"context"
	"fmt"
	"strings"

	"content-pipeline/shared/models"
)

// Permission is a capability a role may hold.
type Permission string

const (
	PermTemplatesWrite Permission = "templates:write"
	PermJobsWrite      Permission = "jobs:write"
	PermJobsRead       Permission = "jobs:read"
	PermSettingsWrite  Permission = "settings:write"
	PermContentReview  Permission = "content:review"
	PermImagesWrite    Permission = "images:write"
)

// Role groups permissions.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	// RoleSystem is used by the worker when it acts on behalf of a job's owner.
	RoleSystem Role = "system"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin:  {PermTemplatesWrite, PermJobsWrite, PermJobsRead, PermSettingsWrite, PermContentReview, PermImagesWrite},
	RoleSystem: {PermTemplatesWrite, PermJobsWrite, PermJobsRead, PermSettingsWrite, PermContentReview, PermImagesWrite},
	RoleEditor: {PermTemplatesWrite, PermJobsWrite, PermJobsRead, PermContentReview, PermImagesWrite},
	RoleViewer: {PermJobsRead},
}

// ParseRole maps a header value to a role; empty means editor.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return RoleEditor, nil
	}
	if r == RoleSystem {
		return "", fmt.Errorf("%w: role %q cannot be requested", models.ErrForbidden, s)
	}
	if _, ok := rolePermissions[r]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", models.ErrForbidden, s)
	}
	return r, nil
}

// Identity is the (account, user) pair an operation runs as.
type Identity struct {
	AccountID string
	UserID    string
	Role      Role
}

// Has reports whether the identity's role grants p.
func (i Identity) Has(p Permission) bool {
	for _, granted := range rolePermissions[i.Role] {
		if granted == p {
			return true
		}
	}
	return false
}

// WithAccount returns a context carrying id.
func WithAccount(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, models.AccountContextKey, id)
}

// Run executes op under id.
func Run(ctx context.Context, id Identity, op func(ctx context.Context) error) error {
	if id.AccountID == "" {
		return models.ErrNoAccount
	}
	return op(WithAccount(ctx, id))
}

// FromContext returns the identity or ErrNoAccount.
func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(models.AccountContextKey).(Identity)
	if !ok || id.AccountID == "" {
		return Identity{}, models.ErrNoAccount
	}
	return id, nil
}

// RequirePermission returns the identity when it holds p.
func RequirePermission(ctx context.Context, p Permission) (Identity, error) {
	id, err := FromContext(ctx)
	if err != nil {
		return Identity{}, err
	}
	if !id.Has(p) {
		return Identity{}, fmt.Errorf("%w: %s", models.ErrForbidden, p)
	}
	return id, nil
}

// Scoped returns the account id every persistence call must filter by.
func Scoped(ctx context.Context) (string, error) {
	id, err := FromContext(ctx)
	if err != nil {
		return "", err
	}
	return id.AccountID, nil
}
