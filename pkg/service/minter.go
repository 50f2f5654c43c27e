package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"candy-drop/pkg/models"
	"candy-drop/pkg/notifications"
	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/solana/associated_token_account_extended"
	"candy-drop/pkg/solana/candymachine"
	"candy-drop/pkg/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrMintInFlight = errors.New("a mint is already in flight")
	ErrSoldOut      = errors.New("drop is sold out")
	ErrNotConnected = errors.New("wallet not connected")
	ErrSubmission   = errors.New("transaction submission failed")
)

// MintState is the stage of the current mint attempt
type MintState string

const (
	MintIdle      MintState = "IDLE"
	MintBuilding  MintState = "BUILDING"
	MintSubmitted MintState = "SUBMITTED"
	MintConfirmed MintState = "CONFIRMED"
	MintFailed    MintState = "FAILED"
)

// Size of an SPL token mint account
const mintAccountSize = 82

// Position of the create-account instruction in the mint transaction
const createMintAccountIndex = 0

// MintRPC is the part of the RPC client the minter needs
type MintRPC interface {
	sol.BlockhashGetter
	sol.TransactionGetter
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
}

// ConfirmationWatcher reports the final status of a submitted transaction
type ConfirmationWatcher interface {
	Watch(ctx context.Context, sig solana.Signature) (*sol.TransactionError, error)
}

// MintOutcome is the observed result of an attempt; Err is nil when confirmed
type MintOutcome struct {
	AttemptID string
	Mint      solana.PublicKey
	Signature solana.Signature
	State     MintState
	Fee       uint64
	Err       *MintError
}

// MintHook runs after an attempt reaches its final state
type MintHook func(ctx context.Context, outcome MintOutcome)

// PendingMint is a submitted attempt whose confirmation is awaited
type PendingMint struct {
	AttemptID string
	Mint      solana.PublicKey
	Signature solana.Signature

	done    chan struct{}
	outcome MintOutcome
}

// Done is closed once the outcome is known and every hook ran
func (p *PendingMint) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the result; it is only valid after Done is closed
func (p *PendingMint) Outcome() MintOutcome {
	<-p.done
	return p.outcome
}

// MinterConfig holds the addresses and timeouts of the minter
type MinterConfig struct {
	DropID         solana.PublicKey
	RequestTimeout time.Duration
	ConfirmTimeout time.Duration
}

// Minter builds and submits mint transactions, one at a time
type Minter struct {
	cfg         MinterConfig
	client      MintRPC
	watcher     ConfirmationWatcher
	wallet      wallet.Wallet
	blockhashes *sol.BlockhashCache
	recorder    *sol.StatsRecorder
	telegram    *notifications.TelegramClient
	logger      *zap.Logger
	newMintKey  func() (solana.PrivateKey, error)

	inFlight atomic.Bool
	wg       sync.WaitGroup

	mu    sync.Mutex
	state MintState
	hooks []MintHook
}

// NewMinter creates a minter. recorder and telegram may be nil.
func NewMinter(cfg MinterConfig, client MintRPC, watcher ConfirmationWatcher, w wallet.Wallet, recorder *sol.StatsRecorder, telegram *notifications.TelegramClient, logger *zap.Logger) *Minter {
	return &Minter{
		cfg:         cfg,
		client:      client,
		watcher:     watcher,
		wallet:      w,
		blockhashes: sol.NewBlockhashCache(30 * time.Second),
		recorder:    recorder,
		telegram:    telegram,
		logger:      logger,
		newMintKey:  solana.NewRandomPrivateKey,
		state:       MintIdle,
	}
}

// OnOutcome registers a hook run after every attempt that reached the chain
func (m *Minter) OnOutcome(hook MintHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// State returns the stage of the latest attempt
func (m *Minter) State() MintState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// InFlight reports whether an attempt is building or awaiting confirmation
func (m *Minter) InFlight() bool {
	return m.inFlight.Load()
}

// Wait blocks until every confirmation wait has finished
func (m *Minter) Wait() {
	m.wg.Wait()
}

// Mint builds, signs and submits a transaction minting one item for payer.
// It returns once the transaction is submitted; the confirmation is awaited
// in the background and reported through the PendingMint and the hooks.
func (m *Minter) Mint(ctx context.Context, payer solana.PublicKey, stats models.DropStats) (*PendingMint, error) {
	if payer.IsZero() || m.wallet == nil {
		return nil, ErrNotConnected
	}
	if stats.SoldOut() {
		return nil, ErrSoldOut
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		return nil, ErrMintInFlight
	}

	attemptID := uuid.NewString()
	logger := m.logger.With(zap.String("attempt", attemptID), zap.Stringer("payer", payer))
	m.setState(MintBuilding)

	mintKey, err := m.newMintKey()
	if err != nil {
		return nil, m.fail(logger, attemptID, solana.PublicKey{}, solana.Signature{}, fmt.Errorf("failed to generate mint key: %w", err))
	}
	mint := mintKey.PublicKey()
	logger = logger.With(zap.Stringer("mint", mint))

	tx, err := m.buildTransaction(ctx, payer, mint, stats)
	if err != nil {
		return nil, m.fail(logger, attemptID, mint, solana.Signature{}, err)
	}

	logger.Info("submitting mint transaction", zap.Int("instructions", len(tx.Message.Instructions)))

	sig, err := m.wallet.SignAndSendTransaction(ctx, tx, mintKey)
	if err != nil {
		if _, ok := sol.TransactionErrorFrom(err); !ok && !errors.Is(err, wallet.ErrTransactionRejected) {
			err = fmt.Errorf("%w: %w", ErrSubmission, err)
		}
		// a stale blockhash is a common cause of rejection
		m.blockhashes.Invalidate()
		return nil, m.fail(logger, attemptID, mint, solana.Signature{}, err)
	}

	m.setState(MintSubmitted)
	logger.Info("mint transaction submitted", zap.Stringer("signature", sig))

	pending := &PendingMint{
		AttemptID: attemptID,
		Mint:      mint,
		Signature: sig,
		done:      make(chan struct{}),
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.awaitConfirmation(context.WithoutCancel(ctx), logger, pending)
	}()

	return pending, nil
}

// buildTransaction assembles the unsigned mint transaction for payer and mint
func (m *Minter) buildTransaction(ctx context.Context, payer, mint solana.PublicKey, stats models.DropStats) (*solana.Transaction, error) {
	ctx, cancel := withTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	instructions, err := m.mintInstructions(ctx, payer, mint, stats)
	if err != nil {
		return nil, err
	}

	blockhash, err := m.blockhashes.Get(ctx, m.client)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get blockhash: %w", ErrSubmission, err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

func (m *Minter) mintInstructions(ctx context.Context, payer, mint solana.PublicKey, stats models.DropStats) ([]solana.Instruction, error) {
	ata, err := sol.FindAssociatedTokenAddress(payer, mint)
	if err != nil {
		return nil, err
	}
	metadata, err := sol.FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	masterEdition, err := sol.FindMasterEditionAddress(mint)
	if err != nil {
		return nil, err
	}

	rent, err := m.client.GetMinimumBalanceForRentExemption(ctx, mintAccountSize, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rent exemption: %w", ErrSubmission, err)
	}

	return []solana.Instruction{
		system.NewCreateAccountInstruction(rent, mintAccountSize, solana.TokenProgramID, payer, mint).Build(),
		token.NewInitializeMintInstruction(0, payer, payer, mint, solana.SysVarRentPubkey).Build(),
		associated_token_account_extended.NewCreateIdempotentInstruction(payer, payer, mint).Build(),
		token.NewMintToInstruction(1, mint, ata, payer, nil).Build(),
		candymachine.NewMintNftInstructionBuilder(candymachine.MintNftAccounts{
			Config:          stats.Config,
			CandyMachine:    m.cfg.DropID,
			Payer:           payer,
			Treasury:        stats.Treasury,
			Metadata:        metadata,
			Mint:            mint,
			MintAuthority:   payer,
			UpdateAuthority: payer,
			MasterEdition:   masterEdition,
		}).Build(),
	}, nil
}

func (m *Minter) awaitConfirmation(ctx context.Context, logger *zap.Logger, pending *PendingMint) {
	defer close(pending.done)

	outcome := MintOutcome{
		AttemptID: pending.AttemptID,
		Mint:      pending.Mint,
		Signature: pending.Signature,
	}

	watchCtx, cancel := withTimeout(ctx, m.cfg.ConfirmTimeout)
	txErr, err := m.watcher.Watch(watchCtx, pending.Signature)
	cancel()

	switch {
	case err != nil:
		outcome.State = MintFailed
		outcome.Err = ClassifyMintError(fmt.Errorf("failed to confirm mint: %w", err))
	case txErr != nil:
		outcome.State = MintFailed
		outcome.Err = ClassifyMintError(txErr)
	default:
		outcome.State = MintConfirmed
	}

	m.setState(outcome.State)
	m.inFlight.Store(false)

	if outcome.State == MintConfirmed {
		logger.Info("mint confirmed", zap.Stringer("signature", pending.Signature))
		outcome.Fee = m.recordConfirmed(ctx, logger, outcome)
	} else {
		logger.Warn("mint failed",
			zap.String("kind", string(outcome.Err.Kind)),
			zap.Uint32("code", outcome.Err.Code),
			zap.Error(outcome.Err.Err),
		)
		m.recordFailed(logger, outcome)
	}

	pending.outcome = outcome

	m.mu.Lock()
	hooks := append([]MintHook(nil), m.hooks...)
	m.mu.Unlock()
	for _, hook := range hooks {
		hook(ctx, outcome)
	}
}

// fail ends an attempt that never reached the chain
func (m *Minter) fail(logger *zap.Logger, attemptID string, mint solana.PublicKey, sig solana.Signature, err error) error {
	m.setState(MintFailed)
	m.inFlight.Store(false)

	classified := ClassifyMintError(err)
	logger.Warn("mint failed before confirmation",
		zap.String("kind", string(classified.Kind)),
		zap.Uint32("code", classified.Code),
		zap.Error(err),
	)

	if classified.Kind != KindCancelled {
		m.recordFailed(logger, MintOutcome{AttemptID: attemptID, Mint: mint, Signature: sig, State: MintFailed, Err: classified})
	}
	return classified
}

func (m *Minter) recordConfirmed(ctx context.Context, logger *zap.Logger, outcome MintOutcome) uint64 {
	feeCtx, cancel := withTimeout(ctx, m.cfg.RequestTimeout)
	fee, err := sol.GetTransactionFee(feeCtx, m.client, outcome.Signature)
	cancel()
	if err != nil {
		logger.Warn("failed to get transaction fee", zap.Error(err))
	} else {
		logger.Info("mint fee", zap.Uint64("lamports", fee))
	}

	var summary *notifications.LedgerSummary
	if m.recorder != nil {
		if err := m.recorder.RecordConfirmedMint(m.cfg.DropID.String(), outcome.Mint.String(), fee, outcome.Signature.String()); err != nil {
			logger.Warn("failed to record mint", zap.Error(err))
		}
		if stats, err := m.recorder.GetMintSummary(); err == nil {
			summary = &notifications.LedgerSummary{
				Last24h:  stats.Last24h,
				LastWeek: stats.LastWeek,
				Total:    stats.Total,
			}
		}
	}

	m.telegram.SendMintConfirmedNotification(m.cfg.DropID.String(), outcome.Mint.String(), fee, outcome.Signature.String(), summary)
	return fee
}

func (m *Minter) recordFailed(logger *zap.Logger, outcome MintOutcome) {
	sig := ""
	if outcome.Signature != (solana.Signature{}) {
		sig = outcome.Signature.String()
	}
	if m.recorder != nil {
		if err := m.recorder.RecordFailedMint(m.cfg.DropID.String(), outcome.Mint.String(), sig, outcome.Err.Message); err != nil {
			logger.Warn("failed to record mint failure", zap.Error(err))
		}
	}
	m.telegram.SendMintFailedNotification(m.cfg.DropID.String(), outcome.AttemptID, outcome.Err.Message)
}

func (m *Minter) setState(state MintState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
