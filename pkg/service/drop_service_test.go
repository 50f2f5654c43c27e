package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"candy-drop/pkg/config"
	"candy-drop/pkg/drop"
	"candy-drop/pkg/models"
	"candy-drop/pkg/notifications"
	"candy-drop/pkg/state"
	"candy-drop/pkg/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeStatsReader struct {
	mu    sync.Mutex
	stats models.DropStats
	calls int
	err   error
}

func (r *fakeStatsReader) FetchDropStats(ctx context.Context, dropID solana.PublicKey) (models.DropStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.stats, r.err
}

func (r *fakeStatsReader) set(stats models.DropStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = stats
}

func (r *fakeStatsReader) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type serviceFixture struct {
	reader  *fakeStatsReader
	wallet  *fakeWallet
	watcher *fakeWatcher
	store   *state.Store
	items   ItemStore
	service *DropService
}

func newServiceFixture(t *testing.T, trusted bool) *serviceFixture {
	t.Helper()
	return newServiceFixtureWithTelegram(t, trusted, nil)
}

func newServiceFixtureWithTelegram(t *testing.T, trusted bool, telegram *notifications.TelegramClient) *serviceFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := &config.Config{
		CandyMachineID: testDropID,
		CheckInterval:  10 * time.Millisecond,
	}

	f := &serviceFixture{
		reader:  &fakeStatsReader{stats: liveStats()},
		wallet:  &fakeWallet{account: testPayer, trusted: trusted},
		watcher: &fakeWatcher{},
		store:   state.NewStore(),
		items:   NewInMemoryItemStore(),
	}

	scanner := &fakeScanner{accounts: rpc.GetProgramAccountsResult{
		keyed(metadataAccount(t, "The Fool", "https://arweave.net/0.json")),
	}}
	docs := &fakeDocs{docs: map[string]models.OffchainMetadata{
		"https://arweave.net/0.json": {Name: "The Fool", Image: "https://arweave.net/0.png"},
	}}

	history := NewHistoryLoader(scanner, docs, f.items, 1000, time.Second, time.Second, logger)
	minter := NewMinter(MinterConfig{DropID: testDropID, ConfirmTimeout: time.Second}, &fakeMintRPC{}, f.watcher, f.wallet, nil, nil, logger)
	provider := wallet.NewProvider(f.wallet, f.store, logger)

	f.service = NewDropService(cfg, provider, f.store, f.reader, history, f.items, minter, telegram, logger)
	t.Cleanup(f.service.Stop)
	return f
}

func TestStartWithTrustedWallet(t *testing.T) {
	f := newServiceFixture(t, true)

	require.NoError(t, f.service.Start(context.Background()))

	assert.True(t, f.store.IsAuthorized())
	stats, ok := f.service.Stats()
	require.True(t, ok)
	assert.Equal(t, uint64(17), stats.ItemsRemaining)
	assert.Len(t, f.service.Items(), 1)

	// the poller keeps refreshing
	assert.Eventually(t, func() bool { return f.reader.callCount() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestStartWithoutTrustDoesNotConnect(t *testing.T) {
	f := newServiceFixture(t, false)

	require.NoError(t, f.service.Start(context.Background()))

	assert.False(t, f.store.IsAuthorized())
	_, ok := f.service.Stats()
	assert.False(t, ok)

	_, err := f.service.Mint(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, f.wallet.sentCount())

	pk, err := f.service.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testPayer, pk)
	assert.True(t, f.store.IsAuthorized())
	assert.Len(t, f.service.Items(), 1)
}

func TestMintRefreshesAfterConfirmation(t *testing.T) {
	f := newServiceFixture(t, true)
	require.NoError(t, f.service.Start(context.Background()))
	f.watcher.release = make(chan struct{})

	before := f.reader.callCount()

	pending, err := f.service.Mint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, drop.ButtonView{Label: drop.LabelMinting}, f.service.MintButton())

	next := liveStats()
	next.ItemsRedeemed = next.ItemsAvailable
	next.ItemsRemaining = 0
	f.reader.set(next)

	close(f.watcher.release)
	<-pending.Done()

	assert.Greater(t, f.reader.callCount(), before)
	assert.Equal(t, drop.ButtonView{Label: drop.LabelSoldOut}, f.service.MintButton())

	_, err = f.service.Mint(context.Background())
	assert.ErrorIs(t, err, ErrSoldOut)
}

func TestSoldOutDropDisablesMint(t *testing.T) {
	f := newServiceFixture(t, true)
	f.reader.set(models.DropStats{ItemsAvailable: 21, ItemsRedeemed: 21})
	require.NoError(t, f.service.Start(context.Background()))

	assert.Equal(t, drop.ButtonView{Label: drop.LabelSoldOut}, f.service.MintButton())

	_, err := f.service.Mint(context.Background())
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.Zero(t, f.wallet.sentCount())
}

func TestConfigOverridesDropAddresses(t *testing.T) {
	f := newServiceFixture(t, true)
	override := solana.MustPublicKeyFromBase58("BuNonfvszzm6dJuzigNbde7qGNmcSYxT64erw3Wboop")
	f.service.cfg.TreasuryAddress = override

	require.NoError(t, f.service.RefreshStats(context.Background()))
	stats, _ := f.service.Stats()
	assert.Equal(t, override, stats.Treasury)
	assert.Equal(t, testConfig, stats.Config)
}

func newCountingTelegram(t *testing.T) (*notifications.TelegramClient, *atomic.Int32) {
	t.Helper()
	var sent atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	client := notifications.NewTelegramClient("token", "42", true, zaptest.NewLogger(t)).WithBaseURL(server.URL)
	return client, &sent
}

func TestSoldOutAnnouncedOnlyOnWitnessedSellOut(t *testing.T) {
	telegram, sent := newCountingTelegram(t)
	f := newServiceFixtureWithTelegram(t, true, telegram)

	require.NoError(t, f.service.RefreshStats(context.Background()))
	assert.Zero(t, sent.Load())

	soldOut := liveStats()
	soldOut.ItemsRedeemed = soldOut.ItemsAvailable
	soldOut.ItemsRemaining = 0
	f.reader.set(soldOut)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.service.RefreshStats(context.Background()))
	}
	assert.Equal(t, int32(1), sent.Load())
}

func TestSoldOutNotAnnouncedWhenFirstSeenSoldOut(t *testing.T) {
	telegram, sent := newCountingTelegram(t)

	// separate runs against a drop that was already sold out
	for i := 0; i < 3; i++ {
		f := newServiceFixtureWithTelegram(t, true, telegram)
		f.reader.set(models.DropStats{ItemsAvailable: 21, ItemsRedeemed: 21})
		require.NoError(t, f.service.RefreshStats(context.Background()))
	}
	assert.Zero(t, sent.Load())
}
