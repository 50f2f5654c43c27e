package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramClient handles sending notifications to Telegram
type TelegramClient struct {
	BotToken string
	ChatID   string
	Enabled  bool

	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTelegramClient creates a new Telegram client
func NewTelegramClient(botToken, chatID string, enabled bool, logger *zap.Logger) *TelegramClient {
	return &TelegramClient{
		BotToken:   botToken,
		ChatID:     chatID,
		Enabled:    enabled,
		baseURL:    defaultTelegramAPI,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL points the client at another Bot API host
func (t *TelegramClient) WithBaseURL(baseURL string) *TelegramClient {
	t.baseURL = baseURL
	return t
}

// SendMessage sends a plain text message to Telegram
func (t *TelegramClient) SendMessage(message string) error {
	if t == nil || !t.Enabled || t.BotToken == "" || t.ChatID == "" {
		return nil // Silently ignore if Telegram is not configured
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.BotToken)

	payload := map[string]interface{}{
		"chat_id":                  t.ChatID,
		"text":                     message,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	resp, err := t.httpClient.Post(url, "application/json", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned non-OK status: %d", resp.StatusCode)
	}

	return nil
}

// LedgerSummary contains the mint counts shown under a confirmation
type LedgerSummary struct {
	Last24h  int
	LastWeek int
	Total    int
}

// SendMintConfirmedNotification notifies about a confirmed mint
func (t *TelegramClient) SendMintConfirmedNotification(drop, mint string, fee uint64, txID string, summary *LedgerSummary) {
	message := fmt.Sprintf(
		"🍬 <b>NFT Minted!</b> 🍬\n\n"+
			"🎰 <b>Drop:</b> <code>%s</code>\n"+
			"🪙 <b>Mint:</b> <code>%s</code>\n"+
			"⛽ <b>Fee:</b> %.6f SOL\n"+
			"🕒 <b>Time:</b> %s\n"+
			"🔗 <b>Transaction:</b> <a href=\"https://solscan.io/tx/%s\">View on Solscan</a>",
		drop, mint,
		float64(fee)/1_000_000_000,
		time.Now().Format("2006-01-02 15:04:05"),
		txID,
	)

	if summary != nil {
		message += fmt.Sprintf(
			"\n\n📈 <b>Mints:</b>\n"+
				"• <b>Last 24h:</b> %d\n"+
				"• <b>Last week:</b> %d\n"+
				"• <b>Total:</b> %d",
			summary.Last24h, summary.LastWeek, summary.Total,
		)
	}

	if err := t.SendMessage(message); err != nil {
		t.logger.Warn("failed to send mint confirmed notification", zap.Error(err))
	}
}

// SendMintFailedNotification notifies about a mint that did not go through
func (t *TelegramClient) SendMintFailedNotification(drop, attemptID, reason string) {
	message := fmt.Sprintf(
		"❌ <b>Mint Failed!</b> ❌\n\n"+
			"🎰 <b>Drop:</b> <code>%s</code>\n"+
			"🔖 <b>Attempt:</b> <code>%s</code>\n"+
			"⚠️ <b>Error:</b> %s\n"+
			"🕒 <b>Time:</b> %s",
		drop, attemptID,
		html.EscapeString(reason),
		time.Now().Format("2006-01-02 15:04:05"),
	)

	if err := t.SendMessage(message); err != nil {
		t.logger.Warn("failed to send mint failed notification", zap.Error(err))
	}
}

// SendWatchStartedMessage announces a watcher with its settings
func (t *TelegramClient) SendWatchStartedMessage(drop, wallet string, checkInterval time.Duration) {
	message := fmt.Sprintf(
		"👋 <b>Candy drop watcher started</b> 👋\n\n"+
			"🎰 <b>Drop:</b> <code>%s</code>\n"+
			"🔍 <b>Wallet:</b> <code>%s</code>\n"+
			"⏱️ <b>Check interval:</b> %s",
		drop, wallet, checkInterval.String(),
	)

	if err := t.SendMessage(message); err != nil {
		t.logger.Warn("failed to send welcome message", zap.Error(err))
	}
}

// SendSoldOutMessage announces that the last item of a drop was redeemed
func (t *TelegramClient) SendSoldOutMessage(drop string, available uint64) {
	message := fmt.Sprintf(
		"🔥 <b>SOLD OUT!</b> 🔥\n\n"+
			"🎰 <b>Drop:</b> <code>%s</code>\n"+
			"📦 <b>Items:</b> %d",
		drop, available,
	)

	if err := t.SendMessage(message); err != nil {
		t.logger.Warn("failed to send sold out message", zap.Error(err))
	}
}
