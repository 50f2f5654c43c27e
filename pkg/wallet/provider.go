package wallet

import (
	"context"

	"candy-drop/pkg/state"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Provider runs wallet connections and records their outcome in the state store
type Provider struct {
	wallet Wallet
	store  *state.Store
	logger *zap.Logger
}

// NewProvider creates a provider; wallet may be nil when none is installed
func NewProvider(wallet Wallet, store *state.Store, logger *zap.Logger) *Provider {
	return &Provider{
		wallet: wallet,
		store:  store,
		logger: logger,
	}
}

// AttemptSilentConnect reconnects a previously trusted wallet without prompting.
// It never escalates to an interactive connect.
func (p *Provider) AttemptSilentConnect(ctx context.Context) (solana.PublicKey, error) {
	return p.connect(ctx, ConnectOptions{OnlyIfTrusted: true},
		state.SilentConnectPending, state.SilentConnectFulfilled, state.SilentConnectRejected)
}

// ConnectInteractive asks the user to authorize the wallet
func (p *Provider) ConnectInteractive(ctx context.Context) (solana.PublicKey, error) {
	return p.connect(ctx, ConnectOptions{},
		state.InteractiveConnectPending, state.InteractiveConnectFulfilled, state.InteractiveConnectRejected)
}

func (p *Provider) connect(ctx context.Context, opts ConnectOptions, pending, fulfilled, rejected state.ActionType) (solana.PublicKey, error) {
	p.store.Dispatch(state.Action{Type: pending})

	if p.wallet == nil {
		p.store.Dispatch(state.Action{Type: rejected})
		return solana.PublicKey{}, ErrWalletUnavailable
	}

	pk, err := p.wallet.Connect(ctx, opts)
	if err != nil {
		p.logger.Debug("wallet connect failed", zap.Bool("silent", opts.OnlyIfTrusted), zap.Error(err))
		p.store.Dispatch(state.Action{Type: rejected})
		return solana.PublicKey{}, err
	}

	p.store.Dispatch(state.Action{Type: fulfilled, Account: pk.String()})
	return pk, nil
}
