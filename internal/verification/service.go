package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"alumport/internal/audit"
	"alumport/internal/platform/metrics"
	"alumport/internal/profile"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
	"alumport/pkg/platform/sentinel"
	"alumport/pkg/requestcontext"
)

// ChangeFeed publishes best-effort table-change notifications. Publishing
// never fails the calling operation.
type ChangeFeed interface {
	Publish(ctx context.Context, table, event string)
}

// Service applies verification-status changes on behalf of privileged users.
type Service struct {
	profiles profile.Store
	audit    *audit.Recorder
	feed     ChangeFeed
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewService wires the verification workflow.
func NewService(profiles profile.Store, recorder *audit.Recorder, feed ChangeFeed, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		profiles: profiles,
		audit:    recorder,
		feed:     feed,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("alumport/internal/verification"),
	}
}

// SetVerified toggles a profile between verified and unverified. Only admins
// may call it. Verifying stamps verified_at and verified_by with the acting
// admin; un-verifying clears both.
func (s *Service) SetVerified(ctx context.Context, target id.UserID, verified bool) (profile.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "verification.SetVerified",
		trace.WithAttributes(
			attribute.String("target_id", target.String()),
			attribute.Bool("verified", verified),
		))
	defer span.End()

	actorRole := profile.Role(requestcontext.ActorRole(ctx))
	if !actorRole.CanVerify() {
		return profile.Profile{}, dErrors.New(dErrors.CodeForbidden, "only admins can change verification")
	}

	desired := profile.StatusUnverified
	if verified {
		desired = profile.StatusVerified
	}

	p, err := s.findProfile(ctx, target)
	if err != nil {
		return profile.Profile{}, err
	}

	if p.Status == desired {
		return profile.Profile{}, dErrors.New(dErrors.CodeConflict, "profile is already "+string(desired))
	}
	// A flagged profile leaves that state only through UndoNotAlumni, which
	// writes the undo_not_alumni audit tag. The toggle must not clear a flag
	// in either direction.
	if p.Status == profile.StatusFlaggedNotAlumni {
		return profile.Profile{}, dErrors.New(dErrors.CodeConflict, "profile is flagged, undo the flag first")
	}
	tr, err := Begin(target, p.Status, desired)
	if err != nil {
		return profile.Profile{}, dErrors.Wrap(err, dErrors.CodeConflict, "invalid verification transition")
	}

	var (
		verifiedAt *time.Time
		verifiedBy *id.UserID
	)
	if desired == profile.StatusVerified {
		now := requestcontext.Now(ctx)
		actor := requestcontext.ActorID(ctx)
		verifiedAt = &now
		verifiedBy = &actor
	}

	if err := s.applyStatus(ctx, target, desired, verifiedAt, verifiedBy); err != nil {
		_ = tr.Rollback()
		return profile.Profile{}, err
	}
	_ = tr.Commit()

	action := audit.ActionUnverifyProfile
	if verified {
		s.audit.ProfileVerified(ctx, target)
		action = audit.ActionVerifyProfile
	} else {
		s.audit.ProfileUnverified(ctx, target)
	}
	s.metrics.VerificationChanges.WithLabelValues(string(action)).Inc()
	s.feed.Publish(ctx, "profiles", "update")

	p.Status = desired
	p.VerifiedAt = verifiedAt
	p.VerifiedBy = verifiedBy
	return p, nil
}

// FlagNotAlumni marks a profile as not an alumni. Admins and coordinators
// may flag; the flag clears any existing verification stamp.
func (s *Service) FlagNotAlumni(ctx context.Context, target id.UserID) (profile.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "verification.FlagNotAlumni",
		trace.WithAttributes(attribute.String("target_id", target.String())))
	defer span.End()

	actorRole := profile.Role(requestcontext.ActorRole(ctx))
	if !actorRole.CanFlag() {
		return profile.Profile{}, dErrors.New(dErrors.CodeForbidden, "only admins and coordinators can flag profiles")
	}

	p, err := s.findProfile(ctx, target)
	if err != nil {
		return profile.Profile{}, err
	}
	if p.Status == profile.StatusFlaggedNotAlumni {
		return profile.Profile{}, dErrors.New(dErrors.CodeConflict, "profile is already flagged")
	}

	tr, err := Begin(target, p.Status, profile.StatusFlaggedNotAlumni)
	if err != nil {
		return profile.Profile{}, dErrors.Wrap(err, dErrors.CodeConflict, "cannot flag profile")
	}

	if err := s.applyStatus(ctx, target, profile.StatusFlaggedNotAlumni, nil, nil); err != nil {
		_ = tr.Rollback()
		return profile.Profile{}, err
	}
	_ = tr.Commit()

	s.audit.FlaggedNotAlumni(ctx, target)
	s.metrics.VerificationChanges.WithLabelValues(string(audit.ActionMarkNotAlumni)).Inc()
	s.feed.Publish(ctx, "profiles", "update")

	p.Status = profile.StatusFlaggedNotAlumni
	p.VerifiedAt = nil
	p.VerifiedBy = nil
	return p, nil
}

// UndoNotAlumni reverts a not-alumni flag. The profile always lands on
// unverified: a verification revoked by the flag is not restored.
func (s *Service) UndoNotAlumni(ctx context.Context, target id.UserID) (profile.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "verification.UndoNotAlumni",
		trace.WithAttributes(attribute.String("target_id", target.String())))
	defer span.End()

	actorRole := profile.Role(requestcontext.ActorRole(ctx))
	if !actorRole.CanFlag() {
		return profile.Profile{}, dErrors.New(dErrors.CodeForbidden, "only admins and coordinators can undo a flag")
	}

	p, err := s.findProfile(ctx, target)
	if err != nil {
		return profile.Profile{}, err
	}
	if p.Status != profile.StatusFlaggedNotAlumni {
		return profile.Profile{}, dErrors.New(dErrors.CodeConflict, "profile is not flagged")
	}

	tr, err := Begin(target, p.Status, profile.StatusUnverified)
	if err != nil {
		return profile.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "stage undo")
	}

	if err := s.applyStatus(ctx, target, profile.StatusUnverified, nil, nil); err != nil {
		_ = tr.Rollback()
		return profile.Profile{}, err
	}
	_ = tr.Commit()

	s.audit.UndidNotAlumni(ctx, target)
	s.metrics.VerificationChanges.WithLabelValues(string(audit.ActionUndoNotAlumni)).Inc()
	s.feed.Publish(ctx, "profiles", "update")

	p.Status = profile.StatusUnverified
	p.VerifiedAt = nil
	p.VerifiedBy = nil
	return p, nil
}

// FlaggedProfile is one row of the flagged-profiles review listing, the
// profile enriched with who flagged it and when.
type FlaggedProfile struct {
	Profile profile.Profile

	FlaggedAt     time.Time
	FlaggedBy     *id.UserID
	FlaggedByName string
	FlaggedByRole string
}

// ListFlagged returns all flagged profiles with flagging attribution pulled
// from the audit log. Attribution is best effort: a profile whose flag entry
// or flagger cannot be resolved is still listed, just without those fields.
func (s *Service) ListFlagged(ctx context.Context) ([]FlaggedProfile, error) {
	ctx, span := s.tracer.Start(ctx, "verification.ListFlagged")
	defer span.End()

	flagged, err := s.profiles.List(ctx, profile.Filter{Status: profile.StatusFlaggedNotAlumni})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list flagged profiles")
	}

	out := make([]FlaggedProfile, 0, len(flagged))
	for _, p := range flagged {
		row := FlaggedProfile{Profile: p}

		entry, err := s.audit.Latest(ctx, p.ID, audit.ActionMarkNotAlumni)
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				s.logger.Warn("flag attribution lookup failed",
					slog.String("target_id", p.ID.String()),
					slog.String("error", err.Error()))
			}
			out = append(out, row)
			continue
		}

		row.FlaggedAt = entry.OccurredAt
		row.FlaggedBy = entry.ActorID
		if entry.ActorID != nil {
			if flagger, err := s.profiles.FindByID(ctx, *entry.ActorID); err == nil {
				row.FlaggedByName = flagger.FullName
				row.FlaggedByRole = string(flagger.Role)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Service) findProfile(ctx context.Context, target id.UserID) (profile.Profile, error) {
	p, err := s.profiles.FindByID(ctx, target)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return profile.Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return profile.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "load profile")
	}
	return p, nil
}

// applyStatus writes the new status, preferring the server-enforced
// procedure and falling back to the direct update when the procedure is
// unavailable in this deployment.
func (s *Service) applyStatus(ctx context.Context, target id.UserID, status profile.VerificationStatus, verifiedAt *time.Time, verifiedBy *id.UserID) error {
	err := s.profiles.SetVerificationPrivileged(ctx, target, status, verifiedAt, verifiedBy)
	if errors.Is(err, sentinel.ErrUnavailable) {
		s.logger.Warn("privileged verification procedure unavailable, using direct update",
			slog.String("target_id", target.String()))
		err = s.profiles.SetVerification(ctx, target, status, verifiedAt, verifiedBy)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "update verification status")
	}
	return nil
}
