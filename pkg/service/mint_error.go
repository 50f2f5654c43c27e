package service

import (
	"errors"

	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/solana/candymachine"
	"candy-drop/pkg/wallet"
)

// User-facing outcomes of a failed mint
const (
	MessageSoldOut           = "SOLD OUT!"
	MessageInsufficientFunds = "Insufficient funds to mint. Please fund your wallet."
	MessageNotLiveYet        = "Minting period hasn't started yet."
	MessageCancelled         = "Minting cancelled in the wallet."
	MessageMintFailed        = "Minting failed! Please try again!"
)

// MintErrorKind is the class of a failed mint
type MintErrorKind string

const (
	KindSoldOut           MintErrorKind = "sold_out"
	KindInsufficientFunds MintErrorKind = "insufficient_funds"
	KindNotLiveYet        MintErrorKind = "not_live_yet"
	KindCancelled         MintErrorKind = "cancelled"
	KindUnknown           MintErrorKind = "unknown"
)

// system program error raised when the funder cannot cover the new account
const systemErrResultWithNegativeLamports = 1

// MintError is a classified mint failure. Code is the custom program error, zero when none.
type MintError struct {
	Kind    MintErrorKind
	Code    uint32
	Message string
	Err     error
}

func (e *MintError) Error() string {
	return e.Message
}

func (e *MintError) Unwrap() error {
	return e.Err
}

// ClassifyMintError maps a failure of any mint stage to its user-facing outcome.
// It inspects the structured transaction error, never the error text.
func ClassifyMintError(err error) *MintError {
	if err == nil {
		return nil
	}
	var mintErr *MintError
	if errors.As(err, &mintErr) {
		return mintErr
	}

	classified := &MintError{Kind: KindUnknown, Message: MessageMintFailed, Err: err}

	if errors.Is(err, wallet.ErrTransactionRejected) {
		classified.Kind = KindCancelled
		classified.Message = MessageCancelled
		return classified
	}
	if errors.Is(err, ErrSoldOut) {
		classified.Kind = KindSoldOut
		classified.Message = MessageSoldOut
		return classified
	}

	txErr, ok := sol.TransactionErrorFrom(err)
	if !ok {
		return classified
	}

	switch txErr.Kind {
	case "InsufficientFundsForFee", "InsufficientFundsForRent":
		classified.Kind = KindInsufficientFunds
		classified.Message = MessageInsufficientFunds
		return classified
	}

	if txErr.InstructionKind == "InsufficientFunds" {
		classified.Kind = KindInsufficientFunds
		classified.Message = MessageInsufficientFunds
		return classified
	}

	code, ok := txErr.CustomCode()
	if !ok {
		return classified
	}
	classified.Code = code

	switch {
	case code == candymachine.ErrCandyMachineEmpty:
		classified.Kind = KindSoldOut
		classified.Message = MessageSoldOut
	case code == candymachine.ErrNotEnoughSOL:
		classified.Kind = KindInsufficientFunds
		classified.Message = MessageInsufficientFunds
	case code == candymachine.ErrCandyMachineNotLiveYet:
		classified.Kind = KindNotLiveYet
		classified.Message = MessageNotLiveYet
	case code == systemErrResultWithNegativeLamports && txErr.InstructionIndex == createMintAccountIndex:
		classified.Kind = KindInsufficientFunds
		classified.Message = MessageInsufficientFunds
	}

	return classified
}
