package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/apperr"
	"github.com/Skotchmaster/discord_alt/internal/directory"
	"github.com/Skotchmaster/discord_alt/internal/models"
	"github.com/Skotchmaster/discord_alt/internal/repo"
	"github.com/Skotchmaster/discord_alt/internal/transport"
	"github.com/Skotchmaster/discord_alt/pkg/cache"
	"github.com/Skotchmaster/discord_alt/pkg/logging"
)

const (
	ProfileTTL         = 300 * time.Second
	DefaultSearchLimit = 20
)

var ErrUserNotFound = apperr.NotFound("User not found")

func ProfileCacheKey(id uuid.UUID) string {
	return "cache:user:" + id.String()
}

type UserService struct {
	Repo      *repo.GormRepo
	Profiles  *cache.Memo[transport.Profile]
	Directory directory.Index
}

// Me returns the full profile of id through the profile cache.
func (s *UserService) Me(ctx context.Context, id uuid.UUID) (transport.Profile, error) {
	return s.Profiles.Get(ctx, ProfileCacheKey(id), ProfileTTL, func(ctx context.Context) (transport.Profile, error) {
		u, err := s.Repo.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return transport.Profile{}, ErrUserNotFound
			}
			return transport.Profile{}, apperr.Internal("load user", err)
		}
		return toProfile(u), nil
	})
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (transport.Profile, error) {
	p, err := s.Me(ctx, id)
	if err != nil {
		return transport.Profile{}, err
	}
	return p.Public(), nil
}

func (s *UserService) UpdateMe(ctx context.Context, id uuid.UUID, req transport.UpdateProfileRequest) (transport.Profile, error) {
	l := logging.FromContext(ctx).With("svc", "user.update_me", "user_id", id)

	upd := repo.ProfileUpdate{Bio: req.Bio, CustomStatus: req.CustomStatus}
	if req.Username != nil && *req.Username != "" {
		taken, err := s.Repo.UsernameTaken(ctx, *req.Username, id)
		if err != nil {
			return transport.Profile{}, apperr.Internal("check username", err)
		}
		if taken {
			l.Warn("update_profile_failed", "status", 409, "reason", "username taken")
			return transport.Profile{}, ErrUsernameTaken
		}
		upd.Username = req.Username
	}

	if err := s.Repo.UpdateProfile(ctx, id, upd); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return transport.Profile{}, ErrUserNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return transport.Profile{}, ErrUsernameTaken
		}
		l.Error("update_profile_failed", "status", 500, "error", err)
		return transport.Profile{}, apperr.Internal("update profile", err)
	}
	s.Profiles.Invalidate(ctx, ProfileCacheKey(id))

	if s.Directory != nil {
		if u, err := s.Repo.GetUserByID(ctx, id); err == nil {
			indexUser(ctx, s.Directory, u)
		}
	}

	l.Info("profile_updated")
	return s.Me(ctx, id)
}

// Search prefers the directory index and falls back to the store when the
// index is absent or failing.
func (s *UserService) Search(ctx context.Context, q string, limit int) ([]transport.UserSummary, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if s.Directory != nil {
		entries, err := s.Directory.Search(ctx, q, limit)
		if err == nil {
			out := make([]transport.UserSummary, len(entries))
			for i, e := range entries {
				out[i] = transport.UserSummary{ID: e.ID, Username: e.Username, Discriminator: e.Discriminator, Avatar: e.Avatar}
			}
			return out, nil
		}
		logging.FromContext(ctx).Warn("directory_search_failed", "error", err)
	}

	users, err := s.Repo.SearchUsers(ctx, q, limit)
	if err != nil {
		return nil, apperr.Internal("search users", err)
	}
	out := make([]transport.UserSummary, len(users))
	for i, u := range users {
		out[i] = transport.UserSummary{ID: u.ID.String(), Username: u.Username, Discriminator: u.Discriminator, Avatar: u.Avatar}
	}
	return out, nil
}

func toProfile(u *models.User) transport.Profile {
	verified, twoFactor := u.EmailVerified, u.TwoFactorEnabled
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	return transport.Profile{
		ID:               u.ID.String(),
		Username:         u.Username,
		Discriminator:    u.Discriminator,
		Email:            u.Email,
		Avatar:           u.Avatar,
		Banner:           u.Banner,
		Bio:              u.Bio,
		CustomStatus:     u.CustomStatus,
		Badges:           badges,
		EmailVerified:    &verified,
		TwoFactorEnabled: &twoFactor,
		CreatedAt:        u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func indexUser(ctx context.Context, idx directory.Index, u *models.User) {
	if idx == nil {
		return
	}
	err := idx.Upsert(ctx, directory.Entry{
		ID:            u.ID.String(),
		Username:      u.Username,
		Discriminator: u.Discriminator,
		Email:         u.Email,
		Avatar:        u.Avatar,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("directory_index_failed", "user_id", u.ID, "error", err)
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
