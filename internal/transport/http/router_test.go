package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"alumport/internal/audit"
	"alumport/internal/auth"
	"alumport/internal/dashboard"
	"alumport/internal/deletion"
	"alumport/internal/geocode"
	"alumport/internal/platform/metrics"
	"alumport/internal/profile"
	"alumport/internal/verification"
	id "alumport/pkg/domain"
)

type nopFeed struct{}

func (nopFeed) Publish(context.Context, string, string) {}

type APISuite struct {
	suite.Suite

	router   http.Handler
	profiles *profile.MemoryStore
	auditLog *audit.MemoryStore

	adminID       id.UserID
	coordinatorID id.UserID
	memberID      id.UserID

	adminToken       string
	coordinatorToken string
	memberToken      string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s.profiles = profile.NewMemoryStore()
	s.auditLog = audit.NewMemoryStore()
	deletions := deletion.NewMemoryStore()
	sessions := auth.NewMemorySessionStore()

	recorder := audit.NewRecorder(s.auditLog, audit.NewMetrics(reg), logger)
	feed := nopFeed{}

	jwtService := auth.NewJWTService("test-signing-key", "alumport-test")
	authService := auth.NewService(s.profiles, sessions, jwtService, recorder, m, logger,
		15*time.Minute, 24*time.Hour)

	geoService := geocode.NewService(nil, geocode.NewMemoryCache(), time.Hour, m, logger)
	profileService := profile.NewService(s.profiles, recorder, geoService, feed, auth.HashPassword, logger)
	verificationService := verification.NewService(s.profiles, recorder, feed, m, logger)
	deletionService := deletion.NewService(deletions, recorder, feed, m, logger)
	overviewService := dashboard.NewService(s.profiles, deletions, m, logger)

	s.router = NewRouter(RouterConfig{
		Logger:         logger,
		TokenValidator: auth.NewTokenValidatorAdapter(jwtService),
		Sessions:       authService,
		Auth:           authService,
		Accounts:       profileService,
		Profiles:       profileService,
		Verification:   verificationService,
		Deletions:      deletionService,
		Activity:       s.auditLog,
		Overview:       overviewService,
		Geocode:        geoService,
	})

	s.adminID = s.seedUser("admin@example.org", profile.RoleAdmin)
	s.coordinatorID = s.seedUser("coord@example.org", profile.RoleCoordinator)
	s.memberID = s.seedUser("member@example.org", profile.RoleMember)

	s.adminToken = s.login("admin@example.org")
	s.coordinatorToken = s.login("coord@example.org")
	s.memberToken = s.login("member@example.org")
}

const testPassword = "correct horse battery staple"

func (s *APISuite) seedUser(email string, role profile.Role) id.UserID {
	hash, err := auth.HashPassword(testPassword)
	s.Require().NoError(err)

	userID := id.NewUserID()
	err = s.profiles.Create(context.Background(), profile.Profile{
		ID:           userID,
		Email:        email,
		FullName:     "Seed " + email,
		Role:         role,
		Status:       profile.StatusUnverified,
		PasswordHash: hash,
	})
	s.Require().NoError(err)
	return userID
}

func (s *APISuite) login(email string) string {
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp loginResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func (s *APISuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestLoginRejectsBadCredentials() {
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "admin@example.org",
		"password": "wrong",
	})
	s.Equal(http.StatusUnauthorized, rec.Code)

	entries, err := s.auditLog.List(context.Background(), audit.Filter{Action: audit.ActionLoginFailed})
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *APISuite) TestAuthenticatedRoutesRejectAnonymous() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/profiles", "", nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/admin/overview", "", nil).Code)
}

func (s *APISuite) TestAdminRoutesRejectMembers() {
	rec := s.do(http.MethodGet, "/admin/overview", s.memberToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *APISuite) TestGetOwnProfile() {
	rec := s.do(http.MethodGet, "/profiles/me", s.memberToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ProfileResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(s.memberID.String(), resp.ID)
	s.Equal("unverified", resp.Status)
}

func (s *APISuite) TestRegister() {
	rec := s.do(http.MethodPost, "/auth/register", "", map[string]any{
		"email":     "fresh@example.org",
		"password":  "long enough secret",
		"full_name": "Fresh Grad",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	// Same email again conflicts.
	rec = s.do(http.MethodPost, "/auth/register", "", map[string]any{
		"email":     "fresh@example.org",
		"password":  "long enough secret",
		"full_name": "Fresh Grad",
	})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *APISuite) TestVerificationWorkflow() {
	path := fmt.Sprintf("/admin/profiles/%s/verification", s.memberID)

	rec := s.do(http.MethodPut, path, s.adminToken, map[string]bool{"verified": true})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp ProfileResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("verified", resp.Status)
	s.Require().NotNil(resp.VerifiedBy)
	s.Equal(s.adminID.String(), *resp.VerifiedBy)

	// Verifying an already-verified profile conflicts.
	rec = s.do(http.MethodPut, path, s.adminToken, map[string]bool{"verified": true})
	s.Equal(http.StatusConflict, rec.Code)

	// Coordinators pass the route gate but the service refuses.
	rec = s.do(http.MethodPut, path, s.coordinatorToken, map[string]bool{"verified": false})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *APISuite) TestFlagWorkflow() {
	flagPath := fmt.Sprintf("/admin/profiles/%s/flag", s.memberID)

	rec := s.do(http.MethodPost, flagPath, s.coordinatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	// Flagged profiles cannot be verified.
	rec = s.do(http.MethodPut,
		fmt.Sprintf("/admin/profiles/%s/verification", s.memberID),
		s.adminToken, map[string]bool{"verified": true})
	s.Equal(http.StatusConflict, rec.Code)

	// The review listing attributes the flag to the coordinator.
	rec = s.do(http.MethodGet, "/admin/profiles/flagged", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var listing struct {
		Flagged []FlaggedProfileResponse `json:"flagged"`
		Total   int                      `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listing))
	s.Require().Equal(1, listing.Total)
	s.Require().NotNil(listing.Flagged[0].FlaggedBy)
	s.Equal(s.coordinatorID.String(), *listing.Flagged[0].FlaggedBy)
	s.Equal("coordinator", listing.Flagged[0].FlaggedByRole)

	// Undo lands on unverified.
	rec = s.do(http.MethodDelete, flagPath, s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ProfileResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("unverified", resp.Status)
}

func (s *APISuite) TestDeletionWorkflow() {
	rec := s.do(http.MethodPost, "/deletion-requests", s.memberToken, map[string]string{
		"reason": "leaving the network",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created DeletionRequestResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Equal("pending", created.Status)

	// Members cannot decide.
	approvePath := "/admin/deletion-requests/" + created.ID + "/approve"
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, approvePath, s.memberToken, nil).Code)

	rec = s.do(http.MethodPost, approvePath, s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var decided DeletionRequestResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decided))
	s.Equal("approved", decided.Status)
	s.Require().NotNil(decided.DecidedBy)
	s.Equal(s.adminID.String(), *decided.DecidedBy)

	// Undo puts it back to pending.
	rec = s.do(http.MethodPost, "/admin/deletion-requests/"+created.ID+"/undo", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var reverted DeletionRequestResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &reverted))
	s.Equal("pending", reverted.Status)
	s.Nil(reverted.DecidedBy)
}

func (s *APISuite) TestActivityLogFilters() {
	path := fmt.Sprintf("/admin/profiles/%s/verification", s.memberID)
	rec := s.do(http.MethodPut, path, s.adminToken, map[string]bool{"verified": true})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/admin/activity?action=verify_profile", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var listing struct {
		Entries []ActivityEntryResponse `json:"entries"`
		Total   int                     `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listing))
	s.Require().Equal(1, listing.Total)
	s.Equal("verify_profile", listing.Entries[0].Action)
	s.Require().NotNil(listing.Entries[0].ActorID)
	s.Equal(s.adminID.String(), *listing.Entries[0].ActorID)

	s.Equal(http.StatusBadRequest,
		s.do(http.MethodGet, "/admin/activity?action=nonsense", s.adminToken, nil).Code)
}

func (s *APISuite) TestGeocodeValidation() {
	rec := s.do(http.MethodGet, "/geocode", s.memberToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/geocode/reverse?lat=abc&lon=4.89", s.memberToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	// Lookups are disabled in this fixture, so valid input resolves nothing.
	rec = s.do(http.MethodGet, "/geocode?address=1+Main+St", s.memberToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/geocode", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestOverviewCounts() {
	rec := s.do(http.MethodGet, "/admin/overview", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var overview dashboard.Overview
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &overview))
	s.Equal(3, overview.TotalProfiles)
	s.Equal(3, overview.Unverified)
}

func (s *APISuite) TestLogoutInvalidatesToken() {
	rec := s.do(http.MethodPost, "/auth/logout", s.memberToken, nil)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/profiles/me", s.memberToken, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestUpdateProfileThroughAPI() {
	rec := s.do(http.MethodPatch, "/profiles/"+s.memberID.String(), s.memberToken, map[string]any{
		"full_name": "Renamed Member",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp ProfileResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("Renamed Member", resp.FullName)

	// Another member's profile is off limits.
	rec = s.do(http.MethodPatch, "/profiles/"+s.adminID.String(), s.memberToken, map[string]any{
		"full_name": "Hijacked",
	})
	s.Equal(http.StatusForbidden, rec.Code)
}
