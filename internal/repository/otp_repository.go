package repository

import (
	"errors"

	"github.com/alokah-labs/superapp-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrOTPNotFound = errors.New("otp not found")

type OTPRepository interface {
	Create(code *domain.OneTimeCode) error
	// FindLatestByDestination returns the most recently created code for the
	// email or phone. Ordering is (created_at DESC, id DESC): created_at is
	// stored with full precision so ties are rare, and when they happen the
	// uuid comparison makes the winner deterministic, not insertion order.
	FindLatestByDestination(email, phone string) (*domain.OneTimeCode, error)
	DeleteAllForUser(userID string) (int64, error)
	DeleteAllForDestination(email, phone string) (int64, error)
}

type GormOTPRepository struct{ db *gorm.DB }

func NewOTPRepository(db *gorm.DB) OTPRepository { return &GormOTPRepository{db: db} }

func (r *GormOTPRepository) Create(code *domain.OneTimeCode) error {
	return r.db.Create(code).Error
}

func (r *GormOTPRepository) FindLatestByDestination(email, phone string) (*domain.OneTimeCode, error) {
	q := r.db.Model(&domain.OneTimeCode{})
	switch {
	case email != "" && phone != "":
		q = q.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		q = q.Where("email = ?", email)
	case phone != "":
		q = q.Where("phone = ?", phone)
	default:
		return nil, ErrOTPNotFound
	}
	var code domain.OneTimeCode
	if err := q.Order("created_at DESC, id DESC").First(&code).Error; err != nil {
		return nil, translateNotFound(err, ErrOTPNotFound)
	}
	return &code, nil
}

func (r *GormOTPRepository) DeleteAllForUser(userID string) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&domain.OneTimeCode{})
	return res.RowsAffected, res.Error
}

func (r *GormOTPRepository) DeleteAllForDestination(email, phone string) (int64, error) {
	q := r.db
	switch {
	case email != "" && phone != "":
		q = q.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		q = q.Where("email = ?", email)
	case phone != "":
		q = q.Where("phone = ?", phone)
	default:
		return 0, nil
	}
	res := q.Delete(&domain.OneTimeCode{})
	return res.RowsAffected, res.Error
}
