//go:build integration

package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"alumport/internal/profile"
	id "alumport/pkg/domain"
	"alumport/pkg/platform/sentinel"
	"alumport/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *profile.PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = profile.NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx,
		"account_deletion_requests", "activity_logs", "profiles"))
}

func (s *PostgresStoreSuite) newProfile(email string) profile.Profile {
	lat, lon := 52.37, 4.89
	return profile.Profile{
		ID:             id.NewUserID(),
		Email:          email,
		FullName:       "Test Person",
		PasswordHash:   "not-a-real-hash",
		Role:           profile.RoleMember,
		GraduationYear: 2019,
		Degree:         "MSc Computer Science",
		Location: profile.Location{
			Address: "1 Main St, Springfield",
			Lat:     &lat,
			Lon:     &lon,
		},
		Status: profile.StatusUnverified,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	p := s.newProfile("find@example.org")
	s.Require().NoError(s.store.Create(s.ctx, p))

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.Email, got.Email)
	s.Equal(p.FullName, got.FullName)
	s.Equal(p.GraduationYear, got.GraduationYear)
	s.Require().NotNil(got.Location.Lat)
	s.InDelta(*p.Location.Lat, *got.Location.Lat, 1e-9)
	s.Equal(profile.StatusUnverified, got.Status)
	s.False(got.CreatedAt.IsZero())

	// Email lookup ignores case.
	byEmail, err := s.store.FindByEmail(s.ctx, "FIND@Example.ORG")
	s.Require().NoError(err)
	s.Equal(p.ID, byEmail.ID)

	_, err = s.store.FindByID(s.ctx, id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateEmailConflicts() {
	p := s.newProfile("dup@example.org")
	s.Require().NoError(s.store.Create(s.ctx, p))

	again := s.newProfile("dup@example.org")
	s.ErrorIs(s.store.Create(s.ctx, again), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdatePartialFields() {
	p := s.newProfile("update@example.org")
	s.Require().NoError(s.store.Create(s.ctx, p))

	name := "Renamed Person"
	degree := "PhD Physics"
	got, err := s.store.Update(s.ctx, p.ID, profile.Update{
		FullName: &name,
		Degree:   &degree,
	}, time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(name, got.FullName)
	s.Equal(degree, got.Degree)
	// Untouched fields survive.
	s.Equal(p.Email, got.Email)
	s.Require().NotNil(got.Location.Lat)
}

func (s *PostgresStoreSuite) TestUpdateClearsCoordinates() {
	p := s.newProfile("coords@example.org")
	s.Require().NoError(s.store.Create(s.ctx, p))

	addr := "somewhere the geocoder does not know"
	got, err := s.store.Update(s.ctx, p.ID, profile.Update{
		Address:     &addr,
		ClearCoords: true,
	}, time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(addr, got.Location.Address)
	s.Nil(got.Location.Lat)
	s.Nil(got.Location.Lon)
}

func (s *PostgresStoreSuite) TestSetVerification() {
	admin := s.newProfile("admin@example.org")
	admin.Role = profile.RoleAdmin
	s.Require().NoError(s.store.Create(s.ctx, admin))

	p := s.newProfile("member@example.org")
	s.Require().NoError(s.store.Create(s.ctx, p))

	at := time.Now().UTC().Truncate(time.Microsecond)
	err := s.store.SetVerification(s.ctx, p.ID, profile.StatusVerified, &at, &admin.ID)
	s.Require().NoError(err)

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(profile.StatusVerified, got.Status)
	s.Require().NotNil(got.VerifiedAt)
	s.Require().NotNil(got.VerifiedBy)
	s.Equal(admin.ID, *got.VerifiedBy)

	err = s.store.SetVerification(s.ctx, id.NewUserID(), profile.StatusVerified, &at, &admin.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestPrivilegedVerification() {
	admin := s.newProfile("admin@example.org")
	admin.Role = profile.RoleAdmin
	s.Require().NoError(s.store.Create(s.ctx, admin))

	p := s.newProfile("member@example.org")
	s.Require().NoError(s.store.Create(s.ctx, p))

	at := time.Now().UTC().Truncate(time.Microsecond)
	err := s.store.SetVerificationPrivileged(s.ctx, p.ID, profile.StatusVerified, &at, &admin.ID)
	s.Require().NoError(err)

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(profile.StatusVerified, got.Status)
	s.Require().NotNil(got.VerifiedBy)
	s.Equal(admin.ID, *got.VerifiedBy)

	// Leaving the verified state clears the stamps inside the procedure.
	err = s.store.SetVerificationPrivileged(s.ctx, p.ID, profile.StatusUnverified, nil, nil)
	s.Require().NoError(err)

	got, err = s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(profile.StatusUnverified, got.Status)
	s.Nil(got.VerifiedAt)
	s.Nil(got.VerifiedBy)
}

func (s *PostgresStoreSuite) TestListAndCount() {
	for i, email := range []string{"a@example.org", "b@example.org", "c@example.org"} {
		p := s.newProfile(email)
		if i == 0 {
			p.Status = profile.StatusVerified
		}
		s.Require().NoError(s.store.Create(s.ctx, p))
	}

	verified, err := s.store.List(s.ctx, profile.Filter{Status: profile.StatusVerified})
	s.Require().NoError(err)
	s.Len(verified, 1)

	all, err := s.store.List(s.ctx, profile.Filter{})
	s.Require().NoError(err)
	s.Len(all, 3)

	counts, err := s.store.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[profile.StatusVerified])
	s.Equal(2, counts[profile.StatusUnverified])
}
