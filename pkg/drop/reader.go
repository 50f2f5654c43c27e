package drop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"candy-drop/pkg/models"
	"candy-drop/pkg/solana/candymachine"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

var (
	// ErrAccountNotFound is returned when the drop id does not point at a candy machine
	ErrAccountNotFound = errors.New("drop account not found")
	// ErrRPCUnavailable is returned when the RPC node could not be reached
	ErrRPCUnavailable = errors.New("rpc unavailable")
)

// GoLiveLayout is the display form of the go-live instant
const GoLiveLayout = http.TimeFormat

// AccountFetcher is the part of the RPC client the reader needs
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// Reader loads the aggregate state of a drop
type Reader struct {
	client    AccountFetcher
	programID solana.PublicKey
	timeout   time.Duration
	logger    *zap.Logger
}

// NewReader creates a reader for candy machines owned by programID
func NewReader(client AccountFetcher, programID solana.PublicKey, timeout time.Duration, logger *zap.Logger) *Reader {
	return &Reader{
		client:    client,
		programID: programID,
		timeout:   timeout,
		logger:    logger,
	}
}

// FetchDropStats reads the candy machine account of dropID and derives its stats
func (r *Reader) FetchDropStats(ctx context.Context, dropID solana.PublicKey) (models.DropStats, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	info, err := r.client.GetAccountInfo(ctx, dropID)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return models.DropStats{}, fmt.Errorf("%w: %s", ErrAccountNotFound, dropID)
		}
		return models.DropStats{}, fmt.Errorf("%w: %v", ErrRPCUnavailable, err)
	}
	if info == nil || info.Value == nil {
		return models.DropStats{}, fmt.Errorf("%w: %s", ErrAccountNotFound, dropID)
	}
	if !info.Value.Owner.Equals(r.programID) {
		return models.DropStats{}, fmt.Errorf("%w: %s is owned by %s", ErrAccountNotFound, dropID, info.Value.Owner)
	}

	machine, err := candymachine.DecodeCandyMachine(info.Value.Data.GetBinary())
	if err != nil {
		return models.DropStats{}, fmt.Errorf("%w: %v", ErrAccountNotFound, err)
	}

	stats, err := StatsFromCandyMachine(machine)
	if err != nil {
		return models.DropStats{}, err
	}

	r.logger.Debug("fetched drop stats",
		zap.Stringer("drop", dropID),
		zap.Uint64("available", stats.ItemsAvailable),
		zap.Uint64("redeemed", stats.ItemsRedeemed),
		zap.String("go_live", stats.GoLiveDisplay),
	)

	return stats, nil
}

// StatsFromCandyMachine derives drop stats from a decoded candy machine
func StatsFromCandyMachine(machine *candymachine.CandyMachine) (models.DropStats, error) {
	if machine.ItemsRedeemed > machine.Data.ItemsAvailable {
		return models.DropStats{}, fmt.Errorf("%w: %d of %d items redeemed",
			candymachine.ErrInvalidAccount, machine.ItemsRedeemed, machine.Data.ItemsAvailable)
	}

	stats := models.DropStats{
		ItemsAvailable: machine.Data.ItemsAvailable,
		ItemsRedeemed:  machine.ItemsRedeemed,
		ItemsRemaining: machine.Data.ItemsAvailable - machine.ItemsRedeemed,
		Price:          machine.Data.Price,
		Treasury:       machine.Wallet,
		Config:         machine.Config,
	}
	if machine.Data.GoLiveDate != nil {
		stats.GoLiveSet = true
		stats.GoLiveTimestamp = *machine.Data.GoLiveDate
		stats.GoLiveDisplay = time.Unix(stats.GoLiveTimestamp, 0).UTC().Format(GoLiveLayout)
	}

	return stats, nil
}
