package profile

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumport/internal/audit"
	"alumport/internal/geocode"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
	"alumport/pkg/requestcontext"
)

type stubLocator struct {
	known map[string]geocode.Result
}

func (l *stubLocator) Locate(_ context.Context, address string) (geocode.Result, bool) {
	result, ok := l.known[address]
	return result, ok
}

type nopFeed struct{}

func (nopFeed) Publish(context.Context, string, string) {}

type profileFixture struct {
	store    *MemoryStore
	auditLog *audit.MemoryStore
	locator  *stubLocator
	service  *Service
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()

	f := &profileFixture{
		store:    NewMemoryStore(),
		auditLog: audit.NewMemoryStore(),
		locator:  &stubLocator{known: map[string]geocode.Result{}},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(f.auditLog, audit.NewMetrics(prometheus.NewRegistry()), logger)

	fakeHash := func(password string) (string, error) { return "hashed:" + password, nil }
	f.service = NewService(f.store, recorder, f.locator, nopFeed{}, fakeHash, logger)
	return f
}

func TestRegister_CreatesUnverifiedMember(t *testing.T) {
	f := newProfileFixture(t)
	f.locator.known["12 College Rd"] = geocode.Result{Lat: 51.5, Lon: -0.1}

	p, err := f.service.Register(context.Background(), RegisterInput{
		Email:          "New.Grad@Example.org",
		Password:       "long enough",
		FullName:       "  New Grad ",
		GraduationYear: 2024,
		Degree:         "BSc Computing",
		Address:        "12 College Rd",
	})
	require.NoError(t, err)

	assert.Equal(t, "new.grad@example.org", p.Email)
	assert.Equal(t, "New Grad", p.FullName)
	assert.Equal(t, RoleMember, p.Role)
	assert.Equal(t, StatusUnverified, p.Status)
	assert.Equal(t, "hashed:long enough", p.PasswordHash)
	require.NotNil(t, p.Location.Lat)
	assert.InDelta(t, 51.5, *p.Location.Lat, 0.001)
}

func TestRegister_Validation(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "long enough", FullName: "X"}},
		{"short password", RegisterInput{Email: "a@b.org", Password: "short", FullName: "X"}},
		{"blank name", RegisterInput{Email: "a@b.org", Password: "long enough", FullName: "   "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Register(ctx, tc.input)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()

	input := RegisterInput{Email: "dup@example.org", Password: "long enough", FullName: "First"}
	_, err := f.service.Register(ctx, input)
	require.NoError(t, err)

	_, err = f.service.Register(ctx, input)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestUpdateProfile_OwnerEditsAndAudits(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()

	p, err := f.service.Register(ctx, RegisterInput{
		Email: "alice@example.org", Password: "long enough", FullName: "Alice",
	})
	require.NoError(t, err)

	name := "Alice Chen"
	degree := "MSc Data Science"
	ownerCtx := requestcontext.WithActor(ctx, p.ID, string(RoleMember))
	updated, err := f.service.UpdateProfile(ownerCtx, p.ID, Update{FullName: &name, Degree: &degree})
	require.NoError(t, err)
	assert.Equal(t, "Alice Chen", updated.FullName)

	entries, err := f.auditLog.List(ctx, audit.Filter{Action: audit.ActionProfileUpdate})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Details, "full_name")
	assert.Contains(t, entries[0].Details, "degree")
}

func TestUpdateProfile_Permissions(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()

	p, err := f.service.Register(ctx, RegisterInput{
		Email: "bob@example.org", Password: "long enough", FullName: "Bob",
	})
	require.NoError(t, err)

	name := "Mallory"
	otherCtx := requestcontext.WithActor(ctx, id.NewUserID(), string(RoleMember))
	_, err = f.service.UpdateProfile(otherCtx, p.ID, Update{FullName: &name})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	adminCtx := requestcontext.WithActor(ctx, id.NewUserID(), string(RoleAdmin))
	_, err = f.service.UpdateProfile(adminCtx, p.ID, Update{FullName: &name})
	assert.NoError(t, err)

	_, err = f.service.UpdateProfile(ctx, p.ID, Update{FullName: &name})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestUpdateProfile_AddressChangeRegeocodes(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	f.locator.known["Old Lane 1"] = geocode.Result{Lat: 1, Lon: 2}

	p, err := f.service.Register(ctx, RegisterInput{
		Email: "carol@example.org", Password: "long enough", FullName: "Carol",
		Address: "Old Lane 1",
	})
	require.NoError(t, err)
	require.NotNil(t, p.Location.Lat)

	// The new address is unknown to the geocoder: coordinates must clear
	// rather than keep pointing at the old place.
	newAddr := "Nowhere 99"
	ownerCtx := requestcontext.WithActor(ctx, p.ID, string(RoleMember))
	updated, err := f.service.UpdateProfile(ownerCtx, p.ID, Update{Address: &newAddr})
	require.NoError(t, err)

	assert.Equal(t, "Nowhere 99", updated.Location.Address)
	assert.Nil(t, updated.Location.Lat)
	assert.Nil(t, updated.Location.Lon)
}

func TestUpdateProfile_EmptyUpdate(t *testing.T) {
	f := newProfileFixture(t)
	ctx := requestcontext.WithActor(context.Background(), id.NewUserID(), string(RoleAdmin))

	_, err := f.service.UpdateProfile(ctx, id.NewUserID(), Update{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
