package service

import (
	"context"
	"errors"
	"sync"

	"candy-drop/pkg/models"
	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type fakeScanner struct {
	accounts rpc.GetProgramAccountsResult
	refetch  map[solana.PublicKey][]byte
	opts     *rpc.GetProgramAccountsOpts
	program  solana.PublicKey
	err      error
}

func (f *fakeScanner) GetProgramAccountsWithOpts(ctx context.Context, publicKey solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	f.program = publicKey
	f.opts = opts
	return f.accounts, f.err
}

func (f *fakeScanner) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	data, ok := f.refetch[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)}}, nil
}

type fakeDocs struct {
	mu      sync.Mutex
	docs    map[string]models.OffchainMetadata
	fetched []string
	block   chan struct{}
}

func (f *fakeDocs) FetchDocument(ctx context.Context, uri string) (models.OffchainMetadata, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, uri)
	doc, ok := f.docs[uri]
	if !ok {
		return models.OffchainMetadata{}, errors.New("404")
	}
	return doc, nil
}

type fakeMintRPC struct {
	rentCalls int
	fee       uint64

	// when set, the rent lookup signals rentEntered and waits for rentRelease
	rentEntered chan struct{}
	rentRelease chan struct{}
}

func (f *fakeMintRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: solana.Hash{1}},
	}, nil
}

func (f *fakeMintRPC) GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	return &rpc.GetTransactionResult{Meta: &rpc.TransactionMeta{Fee: f.fee}}, nil
}

func (f *fakeMintRPC) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error) {
	f.rentCalls++
	if f.rentEntered != nil {
		close(f.rentEntered)
		select {
		case <-f.rentRelease:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 1_461_600, nil
}

type fakeWallet struct {
	mu        sync.Mutex
	sent      []*solana.Transaction
	cosigners [][]solana.PrivateKey
	err       error
	account   solana.PublicKey
	trusted   bool
}

func (w *fakeWallet) Connect(ctx context.Context, opts wallet.ConnectOptions) (solana.PublicKey, error) {
	if opts.OnlyIfTrusted && !w.trusted {
		return solana.PublicKey{}, wallet.ErrNotTrusted
	}
	return w.account, nil
}

func (w *fakeWallet) SignAndSendTransaction(ctx context.Context, tx *solana.Transaction, cosigners ...solana.PrivateKey) (solana.Signature, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return solana.Signature{}, w.err
	}
	w.sent = append(w.sent, tx)
	w.cosigners = append(w.cosigners, cosigners)
	var sig solana.Signature
	sig[0] = byte(len(w.sent))
	return sig, nil
}

func (w *fakeWallet) sentCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sent)
}

type fakeWatcher struct {
	release chan struct{}
	txErr   *sol.TransactionError
	err     error
}

func (f *fakeWatcher) Watch(ctx context.Context, sig solana.Signature) (*sol.TransactionError, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.txErr, f.err
}
