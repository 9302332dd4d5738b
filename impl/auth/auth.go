// Package auth resolves opaque bearer credentials to stable user identities
// and manages the account lifecycle around them. Password verification and
// email delivery belong to the external identity provider; this side only
// sees the token it issued.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rbreg/entity"
	"rbreg/internal/database"
	"rbreg/lib/sl"
)

// EventPurger cascades an account deletion over owned events.
type EventPurger interface {
	DeleteAllOwned(ctx context.Context, uid string) error
}

type Auth struct {
	db     database.Store
	events EventPurger
	log    *slog.Logger
	now    func() time.Time
}

func New(db database.Store, events EventPurger, log *slog.Logger) *Auth {
	return &Auth{
		db:     db,
		events: events,
		log:    log.With(sl.Module("auth")),
		now:    time.Now,
	}
}

// UserByToken maps a credential to its account. The scan is client-side over
// the users collection, like every other lookup against this store.
func (a *Auth) UserByToken(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	var users map[string]entity.User
	found, err := a.db.Get(ctx, "users", &users)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	if found {
		for uid, user := range users {
			if user.Token == token {
				user.Uid = uid
				return &user, nil
			}
		}
	}
	return nil, fmt.Errorf("token not recognised")
}

// CompleteProfile fills in the account profile after first authentication.
// Existing profile fields are overwritten; the uid and token never change.
func (a *Auth) CompleteProfile(ctx context.Context, user *entity.User, form *entity.ProfileForm) (*entity.User, error) {
	email := form.Email
	if email == "" {
		email = user.Email
	}
	fields := map[string]interface{}{
		"first_name": form.FirstName,
		"last_name":  form.LastName,
		"role":       form.Role,
		"email":      email,
		"promotion":  form.Promotion,
	}
	if user.CreatedAt == 0 {
		fields["created_at"] = a.now().Unix()
	}
	if err := a.db.Update(ctx, database.Join("users", user.Uid), fields); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	updated := *user
	updated.FirstName = form.FirstName
	updated.LastName = form.LastName
	updated.Role = form.Role
	updated.Email = email
	updated.Promotion = form.Promotion
	a.log.Info("profile completed", slog.String("uid", user.Uid))
	return &updated, nil
}

// DeleteAccount removes the account and cascades over everything it owns:
// owned events first (each taking its registration data with it), then the
// user record.
func (a *Auth) DeleteAccount(ctx context.Context, uid string) error {
	if a.events != nil {
		if err := a.events.DeleteAllOwned(ctx, uid); err != nil {
			return fmt.Errorf("delete owned events: %w", err)
		}
	}
	if err := a.db.Remove(ctx, database.Join("users", uid)); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	a.log.Info("account deleted", slog.String("uid", uid))
	return nil
}
