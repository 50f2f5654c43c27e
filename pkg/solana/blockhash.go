package solana

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// BlockhashGetter is the part of the RPC client the cache needs
type BlockhashGetter interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

// BlockhashCache keeps the latest blockhash for ttl
type BlockhashCache struct {
	mu        sync.Mutex
	blockhash solana.Hash
	expiry    time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewBlockhashCache(ttl time.Duration) *BlockhashCache {
	return &BlockhashCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached blockhash, fetching a new one when it expired
func (c *BlockhashCache) Get(ctx context.Context, node BlockhashGetter) (solana.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now().Before(c.expiry) {
		return c.blockhash, nil
	}
	block, err := node.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, err
	}

	c.blockhash = block.Value.Blockhash
	c.expiry = c.now().Add(c.ttl)

	return c.blockhash, nil
}

// Invalidate drops the cached value so the next Get refetches
func (c *BlockhashCache) Invalidate() {
	c.mu.Lock()
	c.expiry = time.Time{}
	c.mu.Unlock()
}
