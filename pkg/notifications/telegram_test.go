package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTelegramServer(t *testing.T, status int) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var payloads []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payloads = append(payloads, payload)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &payloads
}

func TestSendMessage(t *testing.T) {
	server, payloads := newTelegramServer(t, http.StatusOK)
	client := NewTelegramClient("token", "42", true, zaptest.NewLogger(t)).WithBaseURL(server.URL)

	require.NoError(t, client.SendMessage("hello"))
	require.Len(t, *payloads, 1)
	assert.Equal(t, "42", (*payloads)[0]["chat_id"])
	assert.Equal(t, "hello", (*payloads)[0]["text"])
	assert.Equal(t, "HTML", (*payloads)[0]["parse_mode"])
}

func TestSendMessageNonOK(t *testing.T) {
	server, _ := newTelegramServer(t, http.StatusBadRequest)
	client := NewTelegramClient("token", "42", true, zaptest.NewLogger(t)).WithBaseURL(server.URL)

	assert.Error(t, client.SendMessage("hello"))
}

func TestDisabledClientSendsNothing(t *testing.T) {
	server, payloads := newTelegramServer(t, http.StatusOK)

	disabled := NewTelegramClient("token", "42", false, zaptest.NewLogger(t)).WithBaseURL(server.URL)
	require.NoError(t, disabled.SendMessage("hello"))

	var missing *TelegramClient
	require.NoError(t, missing.SendMessage("hello"))

	assert.Empty(t, *payloads)
}

func TestMintNotifications(t *testing.T) {
	server, payloads := newTelegramServer(t, http.StatusOK)
	client := NewTelegramClient("token", "42", true, zaptest.NewLogger(t)).WithBaseURL(server.URL)

	client.SendMintConfirmedNotification("drop", "mint", 5_000, "sig", &LedgerSummary{Last24h: 1, LastWeek: 2, Total: 3})
	client.SendMintFailedNotification("drop", "attempt-1", "SOLD OUT! <0x137>")

	require.Len(t, *payloads, 2)
	confirmed := (*payloads)[0]["text"].(string)
	assert.Contains(t, confirmed, "<code>mint</code>")
	assert.Contains(t, confirmed, "0.000005 SOL")
	assert.Contains(t, confirmed, "https://solscan.io/tx/sig")
	assert.Contains(t, confirmed, "<b>Total:</b> 3")

	failed := (*payloads)[1]["text"].(string)
	assert.Contains(t, failed, "attempt-1")
	assert.Contains(t, failed, "SOLD OUT! &lt;0x137&gt;")
}
