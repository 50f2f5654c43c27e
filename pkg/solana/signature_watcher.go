package solana

import (
	"context"
	"fmt"

	solana_go "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"
)

// SignatureWatcher waits for the status notification of a signature over a
// websocket subscription.
type SignatureWatcher struct {
	wsURL      string
	commitment rpc.CommitmentType
	logger     *zap.Logger
}

// NewSignatureWatcher creates a watcher for the given websocket endpoint
func NewSignatureWatcher(wsURL string, commitment rpc.CommitmentType, logger *zap.Logger) *SignatureWatcher {
	return &SignatureWatcher{
		wsURL:      wsURL,
		commitment: commitment,
		logger:     logger,
	}
}

// Watch blocks until the signature reaches the watcher's commitment or ctx is done.
// A nil error means the notification arrived; the returned TransactionError is
// nil when the transaction succeeded.
func (w *SignatureWatcher) Watch(ctx context.Context, sig solana_go.Signature) (*TransactionError, error) {
	client, err := ws.Connect(ctx, w.wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer client.Close()

	sub, err := client.SignatureSubscribe(sig, w.commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to signature: %w", err)
	}
	defer sub.Unsubscribe()

	w.logger.Debug("waiting for signature status", zap.Stringer("signature", sig))

	result, err := sub.Recv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to receive signature status: %w", err)
	}

	return ParseTransactionError(result.Value.Err), nil
}
