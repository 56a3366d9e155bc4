package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/asaskevich/govalidator"

	"alumport/internal/audit"
	"alumport/internal/geocode"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
	"alumport/pkg/platform/sentinel"
	"alumport/pkg/requestcontext"
)

// Locator resolves addresses to coordinates, best effort.
type Locator interface {
	Locate(ctx context.Context, address string) (geocode.Result, bool)
}

// ChangeFeed publishes best-effort table-change notifications.
type ChangeFeed interface {
	Publish(ctx context.Context, table, event string)
}

// PasswordHasher hashes plaintext passwords for storage.
type PasswordHasher func(password string) (string, error)

// Service implements profile reads and edits.
type Service struct {
	store  Store
	audit  *audit.Recorder
	geo    Locator
	feed   ChangeFeed
	hash   PasswordHasher
	logger *slog.Logger
}

// NewService wires the profile workflow.
func NewService(store Store, recorder *audit.Recorder, geo Locator, feed ChangeFeed, hash PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		audit:  recorder,
		geo:    geo,
		feed:   feed,
		hash:   hash,
		logger: logger,
	}
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email          string
	Password       string
	FullName       string
	GraduationYear int
	Degree         string
	Address        string
}

// Register creates a new member account in the unverified state.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Profile, error) {
	if !govalidator.IsEmail(input.Email) {
		return Profile{}, dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	if len(input.Password) < 8 {
		return Profile{}, dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return Profile{}, dErrors.New(dErrors.CodeInvalidInput, "full name is required")
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	p := Profile{
		ID:             id.NewUserID(),
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		FullName:       strings.TrimSpace(input.FullName),
		Role:           RoleMember,
		GraduationYear: input.GraduationYear,
		Degree:         input.Degree,
		Status:         StatusUnverified,
		PasswordHash:   hash,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if input.Address != "" {
		p.Location = s.locate(ctx, input.Address)
	}

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Profile{}, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "create profile")
	}

	s.feed.Publish(ctx, "profiles", "insert")
	return p, nil
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, userID id.UserID) (Profile, error) {
	p, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "load profile")
	}
	return p, nil
}

// List returns profiles matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Profile, error) {
	profiles, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list profiles")
	}
	return profiles, nil
}

// UpdateProfile edits identity fields. Members edit their own profile;
// admins may edit anyone's. A changed address is re-geocoded, and stale
// coordinates are cleared when the new address cannot be resolved.
func (s *Service) UpdateProfile(ctx context.Context, target id.UserID, update Update) (Profile, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return Profile{}, dErrors.New(dErrors.CodeUnauthorized, "sign in to edit profiles")
	}
	if actor != target && !Role(requestcontext.ActorRole(ctx)).CanVerify() {
		return Profile{}, dErrors.New(dErrors.CodeForbidden, "cannot edit another member's profile")
	}

	changed := changedFields(update)
	if len(changed) == 0 {
		return Profile{}, dErrors.New(dErrors.CodeBadRequest, "nothing to update")
	}

	if update.Address != nil {
		loc := s.locate(ctx, *update.Address)
		update.Lat = loc.Lat
		update.Lon = loc.Lon
		// An unresolvable address clears coordinates left over from the
		// previous one.
		update.ClearCoords = loc.Lat == nil
	}

	p, err := s.store.Update(ctx, target, update, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "update profile")
	}

	s.audit.ProfileUpdated(ctx, target, "updated "+strings.Join(changed, ", "))
	s.feed.Publish(ctx, "profiles", "update")
	return p, nil
}

func (s *Service) locate(ctx context.Context, address string) Location {
	loc := Location{Address: address}
	if result, ok := s.geo.Locate(ctx, address); ok {
		loc.Lat = &result.Lat
		loc.Lon = &result.Lon
	}
	return loc
}

func changedFields(update Update) []string {
	var changed []string
	if update.FullName != nil {
		changed = append(changed, "full_name")
	}
	if update.GraduationYear != nil {
		changed = append(changed, "graduation_year")
	}
	if update.Degree != nil {
		changed = append(changed, "degree")
	}
	if update.Address != nil {
		changed = append(changed, "address")
	}
	return changed
}
