package deletion

import (
	"context"
	"errors"
	"log/slog"

	"alumport/internal/audit"
	"alumport/internal/platform/metrics"
	"alumport/internal/profile"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
	"alumport/pkg/platform/sentinel"
	"alumport/pkg/requestcontext"
)

// ChangeFeed publishes best-effort table-change notifications.
type ChangeFeed interface {
	Publish(ctx context.Context, table, event string)
}

// Service runs the deletion request workflow. Members file requests for
// their own account; admins decide them.
type Service struct {
	requests Store
	audit    *audit.Recorder
	feed     ChangeFeed
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService wires the deletion workflow.
func NewService(requests Store, recorder *audit.Recorder, feed ChangeFeed, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		requests: requests,
		audit:    recorder,
		feed:     feed,
		metrics:  m,
		logger:   logger,
	}
}

// Submit files a deletion request for the acting user. A user can hold at
// most one pending request at a time.
func (s *Service) Submit(ctx context.Context, reason string) (Request, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return Request{}, dErrors.New(dErrors.CodeUnauthorized, "sign in to request account deletion")
	}

	pending, err := s.requests.List(ctx, Filter{UserID: &actor, Status: StatusPending, Limit: 1})
	if err != nil {
		return Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "check pending requests")
	}
	if len(pending) > 0 {
		return Request{}, dErrors.New(dErrors.CodeConflict, "a deletion request is already pending")
	}

	req := Request{
		ID:        id.NewDeletionRequestID(),
		UserID:    actor,
		Reason:    reason,
		Status:    StatusPending,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "create deletion request")
	}

	s.audit.DeletionRequested(ctx, actor, reason)
	s.feed.Publish(ctx, "account_deletion_requests", "insert")
	return req, nil
}

// Approve grants a pending request. Admin only.
func (s *Service) Approve(ctx context.Context, reqID id.DeletionRequestID) (Request, error) {
	return s.decide(ctx, reqID, StatusApproved, "")
}

// Deny rejects a pending request with an optional reason. Admin only.
func (s *Service) Deny(ctx context.Context, reqID id.DeletionRequestID, reason string) (Request, error) {
	return s.decide(ctx, reqID, StatusDenied, reason)
}

func (s *Service) decide(ctx context.Context, reqID id.DeletionRequestID, outcome RequestStatus, reason string) (Request, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return Request{}, err
	}

	req, err := s.findRequest(ctx, reqID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, dErrors.New(dErrors.CodeConflict, "request is already "+string(req.Status))
	}

	actor := requestcontext.ActorID(ctx)
	now := requestcontext.Now(ctx)
	if err := s.requests.SetDecision(ctx, reqID, outcome, &actor, &now); err != nil {
		return Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "record decision")
	}

	switch outcome {
	case StatusApproved:
		s.audit.DeletionApproved(ctx, req.UserID)
	case StatusDenied:
		s.audit.DeletionDenied(ctx, req.UserID, reason)
	}
	s.metrics.DeletionDecisions.WithLabelValues(string(outcome)).Inc()
	s.feed.Publish(ctx, "account_deletion_requests", "update")

	req.Status = outcome
	req.DecidedBy = &actor
	req.DecidedAt = &now
	return req, nil
}

// UndoDecision reverts an approved or denied request to pending. Admin
// only. A pending request has nothing to undo.
func (s *Service) UndoDecision(ctx context.Context, reqID id.DeletionRequestID) (Request, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return Request{}, err
	}

	req, err := s.findRequest(ctx, reqID)
	if err != nil {
		return Request{}, err
	}
	if !req.Status.Decided() {
		return Request{}, dErrors.New(dErrors.CodeConflict, "request has no decision to undo")
	}

	if err := s.requests.SetDecision(ctx, reqID, StatusPending, nil, nil); err != nil {
		return Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "revert decision")
	}

	s.audit.DeletionDecisionUndone(ctx, req.UserID)
	s.metrics.DeletionDecisions.WithLabelValues("undone").Inc()
	s.feed.Publish(ctx, "account_deletion_requests", "update")

	req.Status = StatusPending
	req.DecidedBy = nil
	req.DecidedAt = nil
	return req, nil
}

// List returns deletion requests matching the filter. Admin only; members
// see their own requests through Mine.
func (s *Service) List(ctx context.Context, filter Filter) ([]Request, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list deletion requests")
	}
	return requests, nil
}

// Mine returns the acting user's own deletion requests, newest first.
func (s *Service) Mine(ctx context.Context) ([]Request, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sign in to view deletion requests")
	}
	requests, err := s.requests.List(ctx, Filter{UserID: &actor})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list deletion requests")
	}
	return requests, nil
}

func (s *Service) requireAdmin(ctx context.Context) error {
	if !profile.Role(requestcontext.ActorRole(ctx)).CanVerify() {
		return dErrors.New(dErrors.CodeForbidden, "only admins can decide deletion requests")
	}
	return nil
}

func (s *Service) findRequest(ctx context.Context, reqID id.DeletionRequestID) (Request, error) {
	req, err := s.requests.FindByID(ctx, reqID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Request{}, dErrors.New(dErrors.CodeNotFound, "deletion request not found")
		}
		return Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "load deletion request")
	}
	return req, nil
}
