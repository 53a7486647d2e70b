package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/akozhevin/accounts-api/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already exists")
)

// UserRepo is the only database surface of the service: one lookup on
// the unique email index and one insert. No update or delete is exposed.
type UserRepo struct {
	DB *gorm.DB
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts the user and fills in the generated id and timestamps.
// A unique-constraint violation from the database is reported as
// ErrEmailTaken: two concurrent signups racing past the upfront lookup
// resolve here, on the email index.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}
