package repository

import (
	"errors"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateIdentity = errors.New("identity with this email or phone already exists")
)

// UserUpdate is a typed partial update. Only non-nil fields are written.
type UserUpdate struct {
	Username             *string
	PasswordHash         *string
	Role                 *domain.Role
	IsEmailVerified      *bool
	IsActive             *bool
	IsPasswordBasedLogin *bool
	IsEmailBasedLogin    *bool
	IsPhoneBasedLogin    *bool
	LastLoginAt          *time.Time
}

func (u UserUpdate) changes() map[string]any {
	out := map[string]any{}
	if u.Username != nil {
		out["username"] = *u.Username
	}
	if u.PasswordHash != nil {
		out["password_hash"] = *u.PasswordHash
	}
	if u.Role != nil {
		out["role"] = *u.Role
	}
	if u.IsEmailVerified != nil {
		out["is_email_verified"] = *u.IsEmailVerified
	}
	if u.IsActive != nil {
		out["is_active"] = *u.IsActive
	}
	if u.IsPasswordBasedLogin != nil {
		out["is_password_based_login"] = *u.IsPasswordBasedLogin
	}
	if u.IsEmailBasedLogin != nil {
		out["is_email_based_login"] = *u.IsEmailBasedLogin
	}
	if u.IsPhoneBasedLogin != nil {
		out["is_phone_based_login"] = *u.IsPhoneBasedLogin
	}
	if u.LastLoginAt != nil {
		out["last_login_at"] = *u.LastLoginAt
	}
	return out
}

type UserRepository interface {
	FindByID(id string) (*domain.User, error)
	// FindByDestination looks an identity up by email or phone; empty
	// arguments are ignored.
	FindByDestination(email, phone string) (*domain.User, error)
	FindByAssociateID(associateID string) (*domain.User, error)
	Create(user *domain.User) error
	Update(id string, update UserUpdate) (*domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func (r *GormUserRepository) FindByDestination(email, phone string) (*domain.User, error) {
	q := r.db.Model(&domain.User{})
	switch {
	case email != "" && phone != "":
		q = q.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		q = q.Where("email = ?", email)
	case phone != "":
		q = q.Where("phone = ?", phone)
	default:
		return nil, ErrUserNotFound
	}
	var u domain.User
	if err := q.First(&u).Error; err != nil {
		return nil, translateNotFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func (r *GormUserRepository) FindByAssociateID(associateID string) (*domain.User, error) {
	var u domain.User
	if err := r.db.First(&u, "associate_id = ?", associateID).Error; err != nil {
		return nil, translateNotFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func (r *GormUserRepository) Create(user *domain.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (r *GormUserRepository) Update(id string, update UserUpdate) (*domain.User, error) {
	changes := update.changes()
	if len(changes) > 0 {
		res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return r.FindByID(id)
}

func translateNotFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
