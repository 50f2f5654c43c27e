package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"candy-drop/pkg/models"
	"candy-drop/pkg/solana/tokenmetadata"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// ErrHistoryLoading is returned when a scan is requested while another one runs
var ErrHistoryLoading = errors.New("history scan already running")

// MetadataScanner is the part of the RPC client the history loader needs
type MetadataScanner interface {
	GetProgramAccountsWithOpts(ctx context.Context, publicKey solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// DocumentFetcher loads off-chain metadata documents
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, uri string) (models.OffchainMetadata, error)
}

// HistoryLoader fills the item store with the items already minted from a drop
type HistoryLoader struct {
	client         MetadataScanner
	docs           DocumentFetcher
	store          ItemStore
	limiter        ratelimit.Limiter
	requestTimeout time.Duration
	fetchTimeout   time.Duration
	loading        atomic.Bool
	logger         *zap.Logger
}

// NewHistoryLoader creates a loader; ratePerSecond bounds off-chain fetches
func NewHistoryLoader(client MetadataScanner, docs DocumentFetcher, store ItemStore, ratePerSecond int, requestTimeout, fetchTimeout time.Duration, logger *zap.Logger) *HistoryLoader {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &HistoryLoader{
		client:         client,
		docs:           docs,
		store:          store,
		limiter:        ratelimit.New(ratePerSecond),
		requestTimeout: requestTimeout,
		fetchTimeout:   fetchTimeout,
		logger:         logger,
	}
}

// Loading reports whether a scan is running
func (h *HistoryLoader) Loading() bool {
	return h.loading.Load()
}

// LoadHistory scans the metadata accounts created by dropID and appends
// every item whose image is not yet stored. Items are processed one at a
// time; an item that fails to load is skipped. It returns the number of
// items added.
func (h *HistoryLoader) LoadHistory(ctx context.Context, dropID solana.PublicKey) (int, error) {
	if !h.loading.CompareAndSwap(false, true) {
		return 0, ErrHistoryLoading
	}
	defer h.loading.Store(false)

	accounts, err := h.scan(ctx, dropID)
	if err != nil {
		return 0, err
	}

	h.logger.Info("found minted items", zap.Stringer("drop", dropID), zap.Int("accounts", len(accounts)))

	added := 0
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return added, err
		}

		item, err := h.loadItem(ctx, account)
		if err != nil {
			h.logger.Warn("skipping minted item", zap.Stringer("account", account.Pubkey), zap.Error(err))
			continue
		}
		if h.store.AddItem(item) {
			added++
			h.logger.Debug("added minted item", zap.String("name", item.Name), zap.String("image", item.ImageURI))
		}
	}

	if added == 0 {
		h.logger.Info("no new minted items found")
	} else {
		h.logger.Info("loaded minted items", zap.Int("added", added), zap.Int("total", h.store.Len()))
	}

	return added, nil
}

func (h *HistoryLoader) scan(ctx context.Context, dropID solana.PublicKey) (rpc.GetProgramAccountsResult, error) {
	ctx, cancel := withTimeout(ctx, h.requestTimeout)
	defer cancel()

	accounts, err := h.client.GetProgramAccountsWithOpts(
		ctx,
		solana.TokenMetadataProgramID,
		&rpc.GetProgramAccountsOpts{
			Encoding: solana.EncodingBase64,
			Filters:  []rpc.RPCFilter{tokenmetadata.CreatorFilter(dropID)},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan metadata accounts: %w", err)
	}
	return accounts, nil
}

func (h *HistoryLoader) loadItem(ctx context.Context, account *rpc.KeyedAccount) (models.MintedItem, error) {
	data, err := h.accountData(ctx, account)
	if err != nil {
		return models.MintedItem{}, err
	}

	md, err := tokenmetadata.Decode(data)
	if err != nil {
		return models.MintedItem{}, fmt.Errorf("failed to decode metadata: %w", err)
	}

	h.limiter.Take()

	fetchCtx, cancel := withTimeout(ctx, h.fetchTimeout)
	defer cancel()

	doc, err := h.docs.FetchDocument(fetchCtx, md.Data.URI)
	if err != nil {
		return models.MintedItem{}, err
	}

	name := doc.Name
	if name == "" {
		name = md.Data.Name
	}
	return models.MintedItem{Name: name, ImageURI: doc.Image}, nil
}

// accountData returns the data carried by the scan, re-reading the account when the scan returned none
func (h *HistoryLoader) accountData(ctx context.Context, account *rpc.KeyedAccount) ([]byte, error) {
	if account.Account != nil && account.Account.Data != nil {
		if data := account.Account.Data.GetBinary(); len(data) > 0 {
			return data, nil
		}
	}

	ctx, cancel := withTimeout(ctx, h.requestTimeout)
	defer cancel()

	info, err := h.client.GetAccountInfo(ctx, account.Pubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata account: %w", err)
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return nil, fmt.Errorf("metadata account %s has no data", account.Pubkey)
	}
	return info.Value.Data.GetBinary(), nil
}
