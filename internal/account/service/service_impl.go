package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	accountdomain "github.com/smallbiznis/scriba/internal/account/domain"
	"gorm.io/gorm"
)

type service struct {
	db *gorm.DB
}

func NewService(conn *gorm.DB) accountdomain.Service {
	return &service{db: conn}
}

func (s *service) AuthenticateAPIKey(ctx context.Context, rawKey string) (*accountdomain.Account, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, accountdomain.ErrInvalidAPIKey
	}

	sum := sha256.Sum256([]byte(rawKey))
	hash := hex.EncodeToString(sum[:])

	var account accountdomain.Account
	err := s.db.WithContext(ctx).
		Where("api_key_hash = ? AND status = ?", hash, accountdomain.AccountStatusActive).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, accountdomain.ErrInvalidAPIKey
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
