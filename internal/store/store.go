package store

import (
	"crypto/rand"
	"errors"
	"fmt"

	"dex-trade-bot-go/internal/models"
	"github.com/ethereum/go-ethereum/crypto"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a keyed lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Store is the durable bookkeeping interface: the position ledger singleton,
// the append-only trade history and event log, and the operator settings.
// The concrete backend is swappable without touching the order executor.
type Store interface {
	Position() (*models.Position, error)
	SavePosition(p *models.Position) error

	AppendTrade(t *models.Trade) error
	Trades() ([]models.Trade, error)
	LastTrade() (*models.Trade, error)
	TradeByKey(key string) (*models.Trade, error)

	AppendEvent(e *models.Event) error
	Events() ([]models.Event, error)
	ClearEvents() error

	Settings() (*models.Settings, error)
	SaveSettings(s *models.Settings) error
}

// GormStore implements Store on a gorm database.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// New creates a store backed by the given database.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Position returns the singleton position ledger row.
func (s *GormStore) Position() (*models.Position, error) {
	var p models.Position
	if err := s.db.First(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to load position: %w", err)
	}
	return &p, nil
}

// SavePosition persists the position ledger row.
func (s *GormStore) SavePosition(p *models.Position) error {
	if err := s.db.Save(p).Error; err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// AppendTrade appends a trade record. The key must be set by the caller.
func (s *GormStore) AppendTrade(t *models.Trade) error {
	if err := s.db.Create(t).Error; err != nil {
		return fmt.Errorf("failed to append trade: %w", err)
	}
	return nil
}

// Trades returns the full trade history, newest first.
func (s *GormStore) Trades() ([]models.Trade, error) {
	var trades []models.Trade
	if err := s.db.Order("id desc").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	return trades, nil
}

// LastTrade returns the most recent trade, or ErrNotFound when the history
// is empty.
func (s *GormStore) LastTrade() (*models.Trade, error) {
	var t models.Trade
	if err := s.db.Order("id desc").First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load last trade: %w", err)
	}
	return &t, nil
}

// TradeByKey returns the trade with the given key.
func (s *GormStore) TradeByKey(key string) (*models.Trade, error) {
	var t models.Trade
	if err := s.db.Where("key = ?", key).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load trade %s: %w", key, err)
	}
	return &t, nil
}

// AppendEvent appends an event record, generating its key if unset.
func (s *GormStore) AppendEvent(e *models.Event) error {
	if e.Key == "" {
		e.Key = NewKey()
	}
	if err := s.db.Create(e).Error; err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Events returns the full event log, newest first.
func (s *GormStore) Events() ([]models.Event, error) {
	var events []models.Event
	if err := s.db.Order("id desc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return events, nil
}

// ClearEvents permanently deletes all event log entries.
func (s *GormStore) ClearEvents() error {
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Unscoped().Delete(&models.Event{}).Error; err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}
	return nil
}

// Settings returns the operator settings singleton row.
func (s *GormStore) Settings() (*models.Settings, error) {
	var cfg models.Settings
	if err := s.db.First(&cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &cfg, nil
}

// SaveSettings persists the operator settings row.
func (s *GormStore) SaveSettings(cfg *models.Settings) error {
	if err := s.db.Save(cfg).Error; err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// NewKey returns a collision-resistant record identifier: the keccak256
// hash of 32 random bytes, hex encoded.
func NewKey() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("entropy unavailable: %v", err))
	}
	return crypto.Keccak256Hash(b[:]).Hex()
}
