package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/squareft/authbridge/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	profiles map[string]Profile
	orgs     map[string]Organization

	lookupErr error
	orgErr    error
	profErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]Profile),
		orgs:     make(map[string]Organization),
	}
}

func (s *fakeStore) LookupProfile(ctx context.Context, userID string) (bool, error) {
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	_, ok := s.profiles[userID]
	return ok, nil
}

func (s *fakeStore) CreateOrganization(ctx context.Context, org Organization) error {
	if s.orgErr != nil {
		return s.orgErr
	}
	s.orgs[org.ID] = org
	return nil
}

func (s *fakeStore) CreateProfile(ctx context.Context, p Profile) error {
	if s.profErr != nil {
		return s.profErr
	}
	s.profiles[p.UserID] = p
	return nil
}

func TestEnsureProfileCreatesProfileAndOrganization(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	err := svc.EnsureProfile(context.Background(), provider.User{
		ID:       "user-1",
		Email:    "pat@example.com",
		FullName: "Pat Doe",
		OrgName:  "Acme Property Group",
	})
	require.NoError(t, err)

	require.Len(t, store.profiles, 1)
	require.Len(t, store.orgs, 1)

	p := store.profiles["user-1"]
	assert.Equal(t, "pat@example.com", p.Email)
	assert.Equal(t, "Pat Doe", p.FullName)
	assert.Equal(t, DefaultRole, p.Role)

	org := store.orgs[p.OrganizationID]
	assert.Equal(t, "Acme Property Group", org.Name)
	assert.Equal(t, "acme-property-group", org.Slug)
}

func TestEnsureProfileWithoutOrganization(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	err := svc.EnsureProfile(context.Background(), provider.User{
		ID:    "user-2",
		Email: "sam@example.com",
	})
	require.NoError(t, err)

	assert.Len(t, store.orgs, 0)
	assert.Empty(t, store.profiles["user-2"].OrganizationID)
}

func TestEnsureProfileDerivesNameFromEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	err := svc.EnsureProfile(context.Background(), provider.User{
		ID:    "user-5",
		Email: "jordan.lee@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "jordan.lee", store.profiles["user-5"].FullName)

	err = svc.EnsureProfile(context.Background(), provider.User{ID: "user-6"})
	require.NoError(t, err)
	assert.Empty(t, store.profiles["user-6"].FullName)
}

func TestEnsureProfileIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	user := provider.User{ID: "user-3", Email: "kim@example.com", OrgName: "Kim Co"}

	require.NoError(t, svc.EnsureProfile(context.Background(), user))
	require.NoError(t, svc.EnsureProfile(context.Background(), user))

	assert.Len(t, store.profiles, 1)
	assert.Len(t, store.orgs, 1)
}

func TestEnsureProfileRequiresIdentityID(t *testing.T) {
	svc := NewService(newFakeStore())

	err := svc.EnsureProfile(context.Background(), provider.User{Email: "x@example.com"})
	assert.Error(t, err)
}

func TestEnsureProfilePropagatesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.lookupErr = errors.New("connection refused")
	svc := NewService(store)

	err := svc.EnsureProfile(context.Background(), provider.User{ID: "user-4"})
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Acme", "acme"},
		{"spaces", "Acme Property Group", "acme-property-group"},
		{"punctuation run", "Acme -- Property!!", "acme-property"},
		{"leading and trailing junk", "  Acme & Co.  ", "acme-co"},
		{"digits", "Unit 42", "unit-42"},
		{"empty", "", ""},
		{"only junk", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
