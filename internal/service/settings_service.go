package service

import (
	"context"
	"fmt"

	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
	"github.com/aecioaam/sistema-de-pedidos/internal/realtime"
	"github.com/aecioaam/sistema-de-pedidos/internal/repository"

	"go.uber.org/zap"
)

// Publisher raises store events for connected sessions. The realtime
// hub satisfies it; tests swap in a recorder.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// SettingsService reads and mutates the singleton store settings record.
type SettingsService interface {
	Get(ctx context.Context) (*domain.StoreSettings, error)
	Update(ctx context.Context, isOpen bool, closedMessage, whatsAppNumber string) (*domain.StoreSettings, error)
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	publisher    Publisher
	logger       *zap.Logger
}

// NewSettingsService creates a new instance of SettingsService
func NewSettingsService(settingsRepo repository.SettingsRepository, publisher Publisher, logger *zap.Logger) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *settingsService) Get(ctx context.Context) (*domain.StoreSettings, error) {
	return s.settingsRepo.Get(ctx)
}

// Update persists the new settings and pushes the full record to every
// open session, which replaces its cached copy wholesale.
func (s *settingsService) Update(ctx context.Context, isOpen bool, closedMessage, whatsAppNumber string) (*domain.StoreSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings.IsOpen = isOpen
	settings.ClosedMessage = closedMessage
	settings.WhatsAppNumber = whatsAppNumber

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	if err := s.publisher.Publish(ctx, realtime.ChannelSettings, settings); err != nil {
		// Sessions that miss the push pick the change up on next load.
		s.logger.Warn("Failed to publish settings update", zap.Error(err))
	}

	return settings, nil
}
