// Package settings exposes the key/value settings table and the typed shop
// profile kept in it.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
)

// ShopProfileKey is the setting holding the shop profile.
const ShopProfileKey = "shopProfile"

var (
	// ErrKeyRequired indicates an empty setting key.
	ErrKeyRequired = fmt.Errorf("%w: setting key required", model.ErrValidation)
	// ErrNotFound indicates no value is stored under the key.
	ErrNotFound = fmt.Errorf("settings: %w", store.ErrNotFound)
)

// ShopProfile describes the shop on printed documents and the dashboard.
type ShopProfile struct {
	ShopName string `json:"shopName" validate:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email" validate:"omitempty,email"`
	Address  string `json:"address"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// DefaultShopProfile is returned until a profile is saved.
var DefaultShopProfile = ShopProfile{ShopName: "Print Shop", Currency: "USD"}

// Service reads and writes settings.
type Service struct {
	store    *store.Store
	validate *validator.Validate
}

// NewService builds Service.
func NewService(st *store.Store) *Service {
	return &Service{store: st, validate: validator.New()}
}

// Get returns the raw value stored under key.
func (s *Service) Get(ctx context.Context, key string) (json.RawMessage, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrKeyRequired
	}
	raw, found, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return raw, nil
}

// Put stores value under key. The last write wins.
func (s *Service) Put(ctx context.Context, key string, value json.RawMessage) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrKeyRequired
	}
	if key == ShopProfileKey {
		var profile ShopProfile
		if err := json.Unmarshal(value, &profile); err != nil {
			return fmt.Errorf("%w: %s: %v", model.ErrValidation, key, err)
		}
		_, err := s.SaveShopProfile(ctx, profile)
		return err
	}
	return s.store.SaveSetting(ctx, key, value)
}

// ShopProfile returns the saved profile or the default one.
func (s *Service) ShopProfile(ctx context.Context) (ShopProfile, error) {
	profile := DefaultShopProfile
	if _, err := s.store.GetSettingInto(ctx, ShopProfileKey, &profile); err != nil {
		return ShopProfile{}, err
	}
	return profile, nil
}

// SaveShopProfile validates and stores the profile.
func (s *Service) SaveShopProfile(ctx context.Context, profile ShopProfile) (ShopProfile, error) {
	profile.ShopName = strings.TrimSpace(profile.ShopName)
	profile.Currency = strings.ToUpper(strings.TrimSpace(profile.Currency))
	if err := s.validate.Struct(profile); err != nil {
		return ShopProfile{}, fmt.Errorf("%w: %s: %v", model.ErrValidation, ShopProfileKey, err)
	}
	if err := s.store.SaveSetting(ctx, ShopProfileKey, profile); err != nil {
		return ShopProfile{}, err
	}
	return profile, nil
}
