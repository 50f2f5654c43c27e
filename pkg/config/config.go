package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

// Candy Machine v1 program
const DefaultCandyMachineProgramID = "cndyAnrLdpjq1Ssp1z8xxDsB8dxe7u4HL5Nxi2K5WXZ"

// Config holds all configuration parameters for the application
type Config struct {
	SolanaRpcURL          string
	SolanaWsURL           string
	CandyMachineID        solana.PublicKey
	CandyMachineConfig    solana.PublicKey
	TreasuryAddress       solana.PublicKey
	CandyMachineProgramID solana.PublicKey
	WalletPrivateKey      string
	WalletTrustFile       string
	CheckInterval         time.Duration
	RequestTimeout        time.Duration
	MetadataFetchTimeout  time.Duration
	ConfirmTimeout        time.Duration
	MetadataRateLimit     int // off-chain fetches per second
	Debug                 bool
	StatsDataDir          string // Directory to store the mint ledger
	TelegramBotToken      string
	TelegramChatID        string
	EnableTelegram        bool
}

var defaults = map[string]interface{}{
	"SOLANA_RPC_URL":           "https://api.devnet.solana.com",
	"SOLANA_WS_URL":            "",
	"CANDY_MACHINE_ID":         "",
	"CANDY_MACHINE_CONFIG":     "",
	"TREASURY_ADDRESS":         "",
	"CANDY_MACHINE_PROGRAM_ID": DefaultCandyMachineProgramID,
	"WALLET_PRIVATE_KEY":       "",
	"WALLET_TRUST_FILE":        "./data/trusted_accounts.json",
	"CHECK_INTERVAL":           "30s",
	"REQUEST_TIMEOUT":          "15s",
	"METADATA_FETCH_TIMEOUT":   "10s",
	"CONFIRM_TIMEOUT":          "90s",
	"METADATA_RATE_LIMIT":      5,
	"DEBUG":                    false,
	"STATS_DATA_DIR":           "./data/stats",
	"TELEGRAM_BOT_TOKEN":       "",
	"TELEGRAM_CHAT_ID":         "",
	"ENABLE_TELEGRAM":          false,
}

// NewViper returns a viper instance reading the environment with all defaults set.
// Flags may be bound to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load builds the configuration from the given viper instance
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		SolanaRpcURL:         v.GetString("SOLANA_RPC_URL"),
		SolanaWsURL:          v.GetString("SOLANA_WS_URL"),
		WalletPrivateKey:     v.GetString("WALLET_PRIVATE_KEY"),
		WalletTrustFile:      v.GetString("WALLET_TRUST_FILE"),
		CheckInterval:        parseDuration(v, "CHECK_INTERVAL"),
		RequestTimeout:       parseDuration(v, "REQUEST_TIMEOUT"),
		MetadataFetchTimeout: parseDuration(v, "METADATA_FETCH_TIMEOUT"),
		ConfirmTimeout:       parseDuration(v, "CONFIRM_TIMEOUT"),
		MetadataRateLimit:    v.GetInt("METADATA_RATE_LIMIT"),
		Debug:                v.GetBool("DEBUG"),
		StatsDataDir:         v.GetString("STATS_DATA_DIR"),
		TelegramBotToken:     v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:       v.GetString("TELEGRAM_CHAT_ID"),
		EnableTelegram:       v.GetBool("ENABLE_TELEGRAM"),
	}

	if cfg.SolanaWsURL == "" {
		cfg.SolanaWsURL = WebsocketURL(cfg.SolanaRpcURL)
	}
	if cfg.MetadataRateLimit <= 0 {
		cfg.MetadataRateLimit = 1
	}

	var err error
	if cfg.CandyMachineProgramID, err = parseKey(v, "CANDY_MACHINE_PROGRAM_ID", true); err != nil {
		return nil, err
	}
	if cfg.CandyMachineID, err = parseKey(v, "CANDY_MACHINE_ID", true); err != nil {
		return nil, err
	}
	// Config and treasury are only needed to mint; reads work without them
	if cfg.CandyMachineConfig, err = parseKey(v, "CANDY_MACHINE_CONFIG", false); err != nil {
		return nil, err
	}
	if cfg.TreasuryAddress, err = parseKey(v, "TREASURY_ADDRESS", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WebsocketURL derives the websocket endpoint from an http(s) RPC endpoint
func WebsocketURL(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	}
	return rpcURL
}

func parseKey(v *viper.Viper, key string, required bool) (solana.PublicKey, error) {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		if required {
			return solana.PublicKey{}, fmt.Errorf("%s is not set", key)
		}
		return solana.PublicKey{}, nil
	}
	pk, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return pk, nil
}

func parseDuration(v *viper.Viper, key string) time.Duration {
	if d, err := time.ParseDuration(v.GetString(key)); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(defaults[key].(string))
	return d
}
