package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"candy-drop/pkg/config"
	"candy-drop/pkg/drop"
	"candy-drop/pkg/models"
	"candy-drop/pkg/notifications"
	"candy-drop/pkg/state"
	"candy-drop/pkg/wallet"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// StatsReader loads the aggregate state of a drop
type StatsReader interface {
	FetchDropStats(ctx context.Context, dropID solana.PublicKey) (models.DropStats, error)
}

// DropService keeps the drop stats and the minted gallery of one drop up to
// date and runs mints against it
type DropService struct {
	cfg      *config.Config
	provider *wallet.Provider
	store    *state.Store
	reader   StatsReader
	history  *HistoryLoader
	items    ItemStore
	minter   *Minter
	telegram *notifications.TelegramClient

	mu        sync.RWMutex
	stats     models.DropStats
	haveStats bool
	listeners []func(models.DropStats)

	stopCh    chan struct{}
	stopOnce  sync.Once
	waitGroup sync.WaitGroup
	logger    *zap.Logger
}

// NewDropService creates a new service with the provided dependencies
func NewDropService(cfg *config.Config, provider *wallet.Provider, store *state.Store, reader StatsReader, history *HistoryLoader, items ItemStore, minter *Minter, telegram *notifications.TelegramClient, logger *zap.Logger) *DropService {
	s := &DropService{
		cfg:      cfg,
		provider: provider,
		store:    store,
		reader:   reader,
		history:  history,
		items:    items,
		minter:   minter,
		telegram: telegram,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}

	minter.OnOutcome(func(ctx context.Context, outcome MintOutcome) {
		if outcome.State != MintConfirmed {
			return
		}
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("failed to refresh after mint", zap.Error(err))
		}
	})

	return s
}

// Start reconnects a trusted wallet, loads the drop when an account is known
// and polls the stats every CheckInterval until Stop or ctx is done
func (s *DropService) Start(ctx context.Context) error {
	s.logger.Info("starting drop service", zap.Stringer("drop", s.cfg.CandyMachineID))

	if _, err := s.provider.AttemptSilentConnect(ctx); err != nil {
		s.logger.Info("no trusted wallet, connect to mint", zap.Error(err))
	}

	if s.store.IsAuthorized() {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("error in initial drop refresh", zap.Error(err))
		}
	}

	s.waitGroup.Add(1)
	go func() {
		defer s.waitGroup.Done()
		ticker := time.NewTicker(s.cfg.CheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !s.store.IsAuthorized() {
					continue
				}
				if err := s.RefreshStats(ctx); err != nil {
					s.logger.Warn("error polling drop stats", zap.Error(err))
				}
			case <-s.stopCh:
				s.logger.Info("stopping drop service")
				return
			case <-ctx.Done():
				s.logger.Info("context cancelled, stopping drop service")
				return
			}
		}
	}()

	return nil
}

// Stop stops polling and waits for pending confirmations
func (s *DropService) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.waitGroup.Wait()
	s.minter.Wait()
}

// Connect asks the user to authorize the wallet, then loads the drop
func (s *DropService) Connect(ctx context.Context) (solana.PublicKey, error) {
	pk, err := s.provider.ConnectInteractive(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := s.Refresh(ctx); err != nil {
		return pk, err
	}
	return pk, nil
}

// Refresh reloads the stats and scans the history
func (s *DropService) Refresh(ctx context.Context) error {
	if err := s.RefreshStats(ctx); err != nil {
		return err
	}

	if _, err := s.history.LoadHistory(ctx, s.cfg.CandyMachineID); err != nil && !errors.Is(err, ErrHistoryLoading) {
		return err
	}
	return nil
}

// RefreshStats reloads the drop stats and replaces the previous ones
func (s *DropService) RefreshStats(ctx context.Context) error {
	stats, err := s.reader.FetchDropStats(ctx, s.cfg.CandyMachineID)
	if err != nil {
		return fmt.Errorf("failed to fetch drop stats: %w", err)
	}
	stats = s.withOverrides(stats)

	s.mu.Lock()
	// only a sell-out witnessed by this process is announced
	sellOut := s.haveStats && !s.stats.SoldOut() && stats.SoldOut()
	s.stats = stats
	s.haveStats = true
	listeners := make([]func(models.DropStats), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if sellOut {
		s.logger.Info("drop is sold out", zap.Uint64("items", stats.ItemsAvailable))
		s.telegram.SendSoldOutMessage(s.cfg.CandyMachineID.String(), stats.ItemsAvailable)
	}

	for _, l := range listeners {
		l(stats)
	}
	return nil
}

// OnStats registers a function called with every fetched stats
func (s *DropService) OnStats(l func(models.DropStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Mint mints one item for the authorized wallet
func (s *DropService) Mint(ctx context.Context) (*PendingMint, error) {
	if !s.store.IsAuthorized() {
		return nil, ErrNotConnected
	}
	payer, err := solana.PublicKeyFromBase58(s.store.AuthorizedWallet())
	if err != nil {
		return nil, fmt.Errorf("invalid authorized wallet: %w", err)
	}

	stats, ok := s.Stats()
	if !ok {
		if err := s.RefreshStats(ctx); err != nil {
			return nil, err
		}
		stats, _ = s.Stats()
	}

	return s.minter.Mint(ctx, payer, stats)
}

// Stats returns the latest stats and whether any were fetched
func (s *DropService) Stats() (models.DropStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, s.haveStats
}

// Items returns the minted gallery in load order
func (s *DropService) Items() []models.MintedItem {
	return s.items.GetAllItems()
}

func (s *DropService) LoadingHistory() bool {
	return s.history.Loading()
}

// MintButton returns the mint button for the current stats
func (s *DropService) MintButton() drop.ButtonView {
	stats, _ := s.Stats()
	return drop.MintButton(stats, s.minter.InFlight())
}

// Banner returns the drop header for the current stats
func (s *DropService) Banner(now time.Time) drop.BannerView {
	stats, _ := s.Stats()
	return drop.Banner(stats, now)
}

// withOverrides applies the configured config and treasury addresses, when set
func (s *DropService) withOverrides(stats models.DropStats) models.DropStats {
	if !s.cfg.CandyMachineConfig.IsZero() {
		stats.Config = s.cfg.CandyMachineConfig
	}
	if !s.cfg.TreasuryAddress.IsZero() {
		stats.Treasury = s.cfg.TreasuryAddress
	}
	return stats
}
