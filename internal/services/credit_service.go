package services

import (
	"errors"

	"github.com/pitchcraft/pitchcraft-api/internal/models"
	"gorm.io/gorm"
)

type CreditService struct {
	DB *gorm.DB
}

func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{DB: db}
}

func (s *CreditService) Balance(userID string) (int, error) {
	var user models.User
	err := s.DB.Select("credit_balance").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return user.CreditBalance, nil
}

// Charge debits one credit. The WHERE clause doubles as the balance check so
// two concurrent charges can never take the balance below zero.
func (s *CreditService) Charge(userID string) error {
	res := s.DB.Model(&models.User{}).
		Where("id = ? AND credit_balance >= 1", userID).
		Update("credit_balance", gorm.Expr("credit_balance - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// Refund returns a credit taken by Charge when the job never made it to the
// engine.
func (s *CreditService) Refund(userID string) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("credit_balance", gorm.Expr("credit_balance + 1")).Error
}
