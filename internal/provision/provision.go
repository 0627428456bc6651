// Package provision creates the first-run profile and organization records
// for a newly verified identity. It runs after every successful token
// acquisition and must be idempotent: the lookup gates the inserts, and a
// second run for the same identity is a no-op.
package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/squareft/authbridge/internal/logger"
	"github.com/squareft/authbridge/internal/provider"
	"go.uber.org/zap"
)

// DefaultRole is assigned to every provisioned profile. Role changes are an
// account-settings concern, not a callback concern.
const DefaultRole = "pm"

// Organization is a tenant record created when signup metadata names one.
type Organization struct {
	ID   string
	Name string
	Slug string
}

// Profile is the per-identity record. ID is the identity provider's user id.
type Profile struct {
	UserID         string
	Email          string
	FullName       string
	OrganizationID string // empty when signup named no organization
	Role           string
}

// Store persists profiles and organizations.
type Store interface {
	// LookupProfile reports whether a profile exists for the identity.
	LookupProfile(ctx context.Context, userID string) (bool, error)

	CreateOrganization(ctx context.Context, org Organization) error
	CreateProfile(ctx context.Context, p Profile) error
}

// Service implements the callback's provisioning step.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// EnsureProfile creates the profile (and organization, when the signup
// metadata named one) unless a profile already exists. The lookup must
// precede any insert.
func (s *Service) EnsureProfile(ctx context.Context, user provider.User) error {
	if user.ID == "" {
		return fmt.Errorf("cannot provision a profile without an identity id")
	}

	exists, err := s.store.LookupProfile(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("profile lookup failed: %w", err)
	}
	if exists {
		logger.Debug("profile already provisioned", zap.String("user_id", user.ID))
		return nil
	}

	var orgID string
	if user.OrgName != "" {
		orgID = uuid.NewString()
		org := Organization{
			ID:   orgID,
			Name: user.OrgName,
			Slug: Slugify(user.OrgName),
		}
		if err := s.store.CreateOrganization(ctx, org); err != nil {
			return fmt.Errorf("organization create failed: %w", err)
		}
	}

	p := Profile{
		UserID:         user.ID,
		Email:          user.Email,
		FullName:       displayName(user),
		OrganizationID: orgID,
		Role:           DefaultRole,
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return fmt.Errorf("profile create failed: %w", err)
	}

	logger.Info("provisioned first-run profile",
		zap.String("user_id", user.ID),
		zap.Bool("organization", orgID != ""),
	)
	return nil
}

// displayName prefers the signup metadata's full name and falls back to the
// email local part, so a profile is never created nameless when an address
// is known.
func displayName(user provider.User) string {
	if user.FullName != "" {
		return user.FullName
	}
	local, _, _ := strings.Cut(user.Email, "@")
	return local
}

// Slugify lowercases the name and collapses every run of non-alphanumerics
// into a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
