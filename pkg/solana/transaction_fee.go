package solana

import (
	"context"
	"fmt"

	solana_go "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TransactionGetter is the part of the RPC client needed to read a confirmed transaction
type TransactionGetter interface {
	GetTransaction(ctx context.Context, txSig solana_go.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

// GetTransactionFee returns the fee paid by a confirmed transaction in lamports
func GetTransactionFee(ctx context.Context, node TransactionGetter, sig solana_go.Signature) (uint64, error) {
	maxSupportedTransactionVersion := uint64(0)

	result, err := node.GetTransaction(
		ctx,
		sig,
		&rpc.GetTransactionOpts{
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxSupportedTransactionVersion,
		},
	)
	if err != nil {
		return 0, err
	}
	if result == nil || result.Meta == nil {
		return 0, fmt.Errorf("transaction %s has no status metadata", sig)
	}

	return result.Meta.Fee, nil
}
