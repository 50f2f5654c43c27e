package wallet

import (
	"context"
	"testing"

	"candy-drop/pkg/models"
	"candy-drop/pkg/state"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func recordSessions(store *state.Store) *[]models.WalletSession {
	var seen []models.WalletSession
	store.Subscribe(func(s models.WalletSession) {
		seen = append(seen, s)
	})
	return &seen
}

func TestProviderWithoutWallet(t *testing.T) {
	store := state.NewStore()
	seen := recordSessions(store)
	p := NewProvider(nil, store, zaptest.NewLogger(t))

	_, err := p.AttemptSilentConnect(context.Background())
	assert.ErrorIs(t, err, ErrWalletUnavailable)

	_, err = p.ConnectInteractive(context.Background())
	assert.ErrorIs(t, err, ErrWalletUnavailable)

	assert.False(t, store.IsAuthorized())
	assert.False(t, store.IsConnecting())
	assert.Len(t, *seen, 4)
}

func TestProviderSilentThenInteractive(t *testing.T) {
	trust, err := OpenTrustStore("")
	require.NoError(t, err)
	approver := &fakeApprover{connect: true}
	w, key := newTestWallet(t, trust, approver, &fakeSender{})

	store := state.NewStore()
	seen := recordSessions(store)
	p := NewProvider(w, store, zaptest.NewLogger(t))

	_, err = p.AttemptSilentConnect(context.Background())
	assert.ErrorIs(t, err, ErrNotTrusted)
	assert.False(t, store.IsAuthorized())
	assert.Zero(t, approver.connects, "silent connect never escalates")

	pk, err := p.ConnectInteractive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), pk)
	assert.True(t, store.IsAuthorized())
	assert.Equal(t, key.PublicKey().String(), store.AuthorizedWallet())

	assert.Equal(t, []models.WalletSession{
		{Connecting: true},
		{},
		{Connecting: true},
		{Account: key.PublicKey().String()},
	}, *seen)
}

func TestProviderInteractiveRejected(t *testing.T) {
	trust, err := OpenTrustStore("")
	require.NoError(t, err)
	w, _ := newTestWallet(t, trust, &fakeApprover{connect: false}, &fakeSender{})

	store := state.NewStore()
	p := NewProvider(w, store, zaptest.NewLogger(t))

	pk, err := p.ConnectInteractive(context.Background())
	assert.ErrorIs(t, err, ErrUserRejected)
	assert.Equal(t, solana.PublicKey{}, pk)
	assert.False(t, store.IsAuthorized())
	assert.False(t, store.IsConnecting())
}
