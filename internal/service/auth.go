package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/akozhevin/accounts-api/internal/events"
	"github.com/akozhevin/accounts-api/internal/hash"
	"github.com/akozhevin/accounts-api/internal/logging"
	"github.com/akozhevin/accounts-api/internal/models"
	"github.com/akozhevin/accounts-api/internal/repo"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrHashing         = errors.New("password hashing failed")
)

// AuthService holds the two auth flows. Each flow is one store read, a
// conditional guard, at most one write, and a public projection out.
type AuthService struct {
	Repo   *repo.UserRepo
	Events *events.Producer
}

// Register creates a new user. The email must be unused; a race between
// two concurrent registrations is settled by the store's unique index,
// which the repo reports as the same ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (models.PublicUser, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if _, err := s.Repo.FindByEmail(ctx, email); err == nil {
		return models.PublicUser{}, repo.ErrEmailTaken
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		return models.PublicUser{}, err
	}

	pwHash, err := hash.Password(password)
	if err != nil {
		l.Error("hashing failed", "error", err)
		return models.PublicUser{}, fmt.Errorf("%w: %w", ErrHashing, err)
	}

	if role == "" {
		role = models.RoleUser
	}
	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Repo.Create(ctx, &user); err != nil {
		return models.PublicUser{}, err
	}

	s.publish(ctx, "user_registered", &user)
	l.Info("user registered", "user_id", user.ID)
	return user.Public(), nil
}

// SignIn verifies credentials. ErrUserNotFound and ErrInvalidPassword
// are distinct here; the handler collapses both to one 401 so the
// response does not reveal whether the account exists.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (models.PublicUser, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signin")

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return models.PublicUser{}, err
	}

	if !hash.Check(user.PasswordHash, password) {
		return models.PublicUser{}, ErrInvalidPassword
	}

	s.publish(ctx, "user_signed_in", user)
	l.Info("user signed in", "user_id", user.ID)
	return user.Public(), nil
}

// publish is best effort: event delivery never fails the request.
func (s *AuthService) publish(ctx context.Context, kind string, u *models.User) {
	event := map[string]any{
		"type":    kind,
		"user_id": u.ID,
		"email":   u.Email,
	}
	if err := s.Events.Publish(ctx, fmt.Sprint(u.ID), event); err != nil {
		logging.FromContext(ctx).Warn("event publish failed", "type", kind, "error", err)
	}
}
