package main

import (
	"fmt"

	"candy-drop/pkg/api"
	"candy-drop/pkg/config"
	"candy-drop/pkg/drop"
	"candy-drop/pkg/notifications"
	"candy-drop/pkg/service"
	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/solana/candymachine"
	"candy-drop/pkg/state"
	"candy-drop/pkg/wallet"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the wired components shared by the commands
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *state.Store
	recorder *sol.StatsRecorder
	telegram *notifications.TelegramClient
	service  *service.DropService
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}

	candymachine.SetProgramID(cfg.CandyMachineProgramID)

	client := rpc.New(cfg.SolanaRpcURL)
	store := state.NewStore()

	telegram := notifications.NewTelegramClient(
		cfg.TelegramBotToken,
		cfg.TelegramChatID,
		cfg.EnableTelegram,
		logger,
	)

	recorder, err := sol.NewStatsRecorder(cfg.StatsDataDir)
	if err != nil {
		logger.Warn("failed to initialize mint ledger", zap.Error(err))
		recorder = nil
	}

	w, err := newWallet(cmd, cfg, client, logger)
	if err != nil {
		return nil, err
	}
	provider := wallet.NewProvider(w, store, logger)

	items := service.NewInMemoryItemStore()
	history := service.NewHistoryLoader(
		client,
		api.NewMetadataClient(cfg.MetadataFetchTimeout, logger),
		items,
		cfg.MetadataRateLimit,
		cfg.RequestTimeout,
		cfg.MetadataFetchTimeout,
		logger,
	)

	minter := service.NewMinter(
		service.MinterConfig{
			DropID:         cfg.CandyMachineID,
			RequestTimeout: cfg.RequestTimeout,
			ConfirmTimeout: cfg.ConfirmTimeout,
		},
		client,
		sol.NewSignatureWatcher(cfg.SolanaWsURL, rpc.CommitmentConfirmed, logger),
		w,
		recorder,
		telegram,
		logger,
	)

	reader := drop.NewReader(client, cfg.CandyMachineProgramID, cfg.RequestTimeout, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		recorder: recorder,
		telegram: telegram,
		service:  service.NewDropService(cfg, provider, store, reader, history, items, minter, telegram, logger),
	}, nil
}

// newWallet returns nil when no private key is configured so the provider reports the wallet as unavailable
func newWallet(cmd *cobra.Command, cfg *config.Config, client *rpc.Client, logger *zap.Logger) (wallet.Wallet, error) {
	if cfg.WalletPrivateKey == "" {
		return nil, nil
	}

	trust, err := wallet.OpenTrustStore(cfg.WalletTrustFile)
	if err != nil {
		return nil, err
	}

	var approver wallet.Approver = wallet.NewTerminalApprover(cmd.InOrStdin(), cmd.OutOrStdout())
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		approver = wallet.AutoApprover{}
	}

	kw, err := wallet.NewKeypairWallet(cfg.WalletPrivateKey, trust, approver, client, logger)
	if err != nil {
		return nil, err
	}
	return kw, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func (a *app) close() {
	a.service.Stop()
	_ = a.logger.Sync()
}
