// Package identity derives conversation ids and resolves display names.
package identity

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/repository"
)

type Resolver struct {
	profiles repository.ProfileRepository
	logger   zerolog.Logger
}

func NewResolver(profiles repository.ProfileRepository, logger zerolog.Logger) *Resolver {
	return &Resolver{profiles: profiles, logger: logger}
}

// ConversationID is the canonical id for a and b; see domain.NewConversationID.
func (r *Resolver) ConversationID(a, b domain.ParticipantID) (domain.ConversationID, error) {
	return domain.NewConversationID(a, b)
}

// DisplayName tries the chosen username, then the profile headline, then
// the id itself. Lookup failures fall through to the next step.
func (r *Resolver) DisplayName(ctx context.Context, id domain.ParticipantID) string {
	if r.profiles != nil && id != "" {
		profile, err := r.profiles.GetByID(ctx, id)
		if err != nil {
			r.logger.Warn().Err(err).Str("participant", id.String()).Msg("profile lookup failed, using id as display name")
		}
		if profile != nil {
			if name := strings.TrimSpace(profile.Username); name != "" {
				return name
			}
			if headline := strings.TrimSpace(profile.Headline); headline != "" {
				return headline
			}
		}
	}
	if id == "" {
		return "unknown"
	}
	return id.String()
}

// NameOr returns name when it is not blank and the resolved display name
// of id otherwise.
func (r *Resolver) NameOr(ctx context.Context, name string, id domain.ParticipantID) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return r.DisplayName(ctx, id)
}
