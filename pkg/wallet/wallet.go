package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

var (
	ErrWalletUnavailable   = errors.New("no wallet available")
	ErrNotTrusted          = errors.New("wallet has not trusted this client")
	ErrUserRejected        = errors.New("connection rejected by user")
	ErrTransactionRejected = errors.New("transaction rejected by user")
)

// ConnectOptions controls how a wallet asks for authorization
type ConnectOptions struct {
	// OnlyIfTrusted connects without prompting, failing when no prior grant exists
	OnlyIfTrusted bool
}

// Wallet is the capability the client needs from a wallet
type Wallet interface {
	Connect(ctx context.Context, opts ConnectOptions) (solana.PublicKey, error)
	SignAndSendTransaction(ctx context.Context, tx *solana.Transaction, cosigners ...solana.PrivateKey) (solana.Signature, error)
}

// TransactionSender submits signed transactions
type TransactionSender interface {
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// KeypairWallet is a wallet backed by a local private key
type KeypairWallet struct {
	key      solana.PrivateKey
	trust    *TrustStore
	approver Approver
	sender   TransactionSender
	logger   *zap.Logger

	mu        sync.Mutex
	connected bool
}

// NewKeypairWallet creates a wallet from a base58 private key
func NewKeypairWallet(privateKey string, trust *TrustStore, approver Approver, sender TransactionSender, logger *zap.Logger) (*KeypairWallet, error) {
	if privateKey == "" {
		return nil, fmt.Errorf("%w: wallet private key not configured", ErrWalletUnavailable)
	}
	key, err := solana.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &KeypairWallet{
		key:      key,
		trust:    trust,
		approver: approver,
		sender:   sender,
		logger:   logger,
	}, nil
}

// Connect authorizes the account for this client. A silent connect succeeds
// only when a previous interactive connect was approved.
func (w *KeypairWallet) Connect(ctx context.Context, opts ConnectOptions) (solana.PublicKey, error) {
	account := w.key.PublicKey()

	if w.trust.IsTrusted(account) {
		w.setConnected()
		return account, nil
	}
	if opts.OnlyIfTrusted {
		return solana.PublicKey{}, ErrNotTrusted
	}

	approved, err := w.approver.ApproveConnect(ctx, account)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to ask for approval: %w", err)
	}
	if !approved {
		return solana.PublicKey{}, ErrUserRejected
	}

	if err := w.trust.Trust(account); err != nil {
		// the session still counts, only the grant is not remembered
		w.logger.Warn("failed to persist trust grant", zap.Error(err))
	}
	w.setConnected()

	w.logger.Info("wallet connected", zap.Stringer("account", account))
	return account, nil
}

// SignAndSendTransaction asks for approval, signs tx with the wallet key and
// the cosigners, and submits it.
func (w *KeypairWallet) SignAndSendTransaction(ctx context.Context, tx *solana.Transaction, cosigners ...solana.PrivateKey) (solana.Signature, error) {
	if !w.isConnected() {
		return solana.Signature{}, ErrNotTrusted
	}

	approved, err := w.approver.ApproveTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to ask for approval: %w", err)
	}
	if !approved {
		return solana.Signature{}, ErrTransactionRejected
	}

	signers := append([]solana.PrivateKey{w.key}, cosigners...)
	if _, err = tx.Sign(
		func(key solana.PublicKey) *solana.PrivateKey {
			for _, signer := range signers {
				if signer.PublicKey().Equals(key) {
					return &signer
				}
			}
			return nil
		},
	); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := w.sender.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return solana.Signature{}, err
	}

	return sig, nil
}

func (w *KeypairWallet) setConnected() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
}

func (w *KeypairWallet) isConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}
