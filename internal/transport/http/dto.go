package httptransport

import (
	"time"

	"alumport/internal/audit"
	"alumport/internal/deletion"
	"alumport/internal/profile"
	"alumport/internal/verification"
)

// ProfileResponse is the public shape of a profile. The password hash never
// appears here.
type ProfileResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Role           string     `json:"role"`
	GraduationYear int        `json:"graduation_year,omitempty"`
	Degree         string     `json:"degree,omitempty"`
	Address        string     `json:"address,omitempty"`
	Lat            *float64   `json:"lat,omitempty"`
	Lon            *float64   `json:"lon,omitempty"`
	Status         string     `json:"verification_status"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	VerifiedBy     *string    `json:"verified_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toProfileResponse(p profile.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:             p.ID.String(),
		Email:          p.Email,
		FullName:       p.FullName,
		Role:           string(p.Role),
		GraduationYear: p.GraduationYear,
		Degree:         p.Degree,
		Address:        p.Location.Address,
		Lat:            p.Location.Lat,
		Lon:            p.Location.Lon,
		Status:         string(p.Status),
		VerifiedAt:     p.VerifiedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.VerifiedBy != nil {
		by := p.VerifiedBy.String()
		resp.VerifiedBy = &by
	}
	return resp
}

func toProfileResponses(profiles []profile.Profile) []ProfileResponse {
	out := make([]ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}
	return out
}

// FlaggedProfileResponse is one row of the flagged-profiles review view.
type FlaggedProfileResponse struct {
	Profile       ProfileResponse `json:"profile"`
	FlaggedAt     *time.Time      `json:"flagged_at,omitempty"`
	FlaggedBy     *string         `json:"flagged_by,omitempty"`
	FlaggedByName string          `json:"flagged_by_name,omitempty"`
	FlaggedByRole string          `json:"flagged_by_role,omitempty"`
}

func toFlaggedProfileResponse(row verification.FlaggedProfile) FlaggedProfileResponse {
	resp := FlaggedProfileResponse{
		Profile:       toProfileResponse(row.Profile),
		FlaggedByName: row.FlaggedByName,
		FlaggedByRole: row.FlaggedByRole,
	}
	if !row.FlaggedAt.IsZero() {
		at := row.FlaggedAt
		resp.FlaggedAt = &at
	}
	if row.FlaggedBy != nil {
		by := row.FlaggedBy.String()
		resp.FlaggedBy = &by
	}
	return resp
}

// DeletionRequestResponse is the public shape of a deletion request.
type DeletionRequestResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason,omitempty"`
	Status    string     `json:"status"`
	DecidedBy *string    `json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toDeletionRequestResponse(req deletion.Request) DeletionRequestResponse {
	resp := DeletionRequestResponse{
		ID:        req.ID.String(),
		UserID:    req.UserID.String(),
		Reason:    req.Reason,
		Status:    string(req.Status),
		DecidedAt: req.DecidedAt,
		CreatedAt: req.CreatedAt,
	}
	if req.DecidedBy != nil {
		by := req.DecidedBy.String()
		resp.DecidedBy = &by
	}
	return resp
}

func toDeletionRequestResponses(requests []deletion.Request) []DeletionRequestResponse {
	out := make([]DeletionRequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toDeletionRequestResponse(req))
	}
	return out
}

// ActivityEntryResponse is one audit log row.
type ActivityEntryResponse struct {
	ID            string    `json:"id"`
	ActorID       *string   `json:"actor_id,omitempty"`
	TargetID      *string   `json:"target_id,omitempty"`
	Action        string    `json:"action"`
	Details       string    `json:"details,omitempty"`
	ClientContext string    `json:"client_context,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func toActivityEntryResponse(e audit.Entry) ActivityEntryResponse {
	resp := ActivityEntryResponse{
		ID:            e.ID.String(),
		Action:        string(e.Action),
		Details:       e.Details,
		ClientContext: e.ClientContext,
		OccurredAt:    e.OccurredAt,
	}
	if e.ActorID != nil {
		actor := e.ActorID.String()
		resp.ActorID = &actor
	}
	if e.TargetID != nil {
		target := e.TargetID.String()
		resp.TargetID = &target
	}
	return resp
}
