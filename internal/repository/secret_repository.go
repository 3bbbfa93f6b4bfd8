package repository

import (
	"errors"

	"github.com/alokah-labs/superapp-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrSecretNotFound = errors.New("secret not found")

type SecretRepository interface {
	Create(secret *domain.Secret) error
	FindLatestByType(secretType domain.SecretType) (*domain.Secret, error)
}

type GormSecretRepository struct{ db *gorm.DB }

func NewSecretRepository(db *gorm.DB) SecretRepository { return &GormSecretRepository{db: db} }

func (r *GormSecretRepository) Create(secret *domain.Secret) error {
	return r.db.Create(secret).Error
}

func (r *GormSecretRepository) FindLatestByType(secretType domain.SecretType) (*domain.Secret, error) {
	var secret domain.Secret
	err := r.db.Where("type = ?", secretType).Order("created_at DESC, id DESC").First(&secret).Error
	if err != nil {
		return nil, translateNotFound(err, ErrSecretNotFound)
	}
	return &secret, nil
}
