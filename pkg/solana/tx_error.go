package solana

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// TransactionError is the structured form of a transaction failure as
// reported by the runtime, either in a signature notification or in the
// preflight simulation data of a rejected send.
type TransactionError struct {
	// Kind is the top-level variant, e.g. "InstructionError" or "InsufficientFundsForFee"
	Kind string
	// InstructionIndex is the failing instruction, -1 for transaction-level errors
	InstructionIndex int
	// InstructionKind is the instruction error variant, e.g. "Custom" or "InsufficientFunds"
	InstructionKind string
	// Custom holds the program error code when InstructionKind is "Custom"
	Custom uint32

	Raw interface{}
}

func (e *TransactionError) Error() string {
	switch {
	case e.InstructionKind == "Custom":
		return fmt.Sprintf("instruction %d: custom program error: 0x%x", e.InstructionIndex, e.Custom)
	case e.InstructionIndex >= 0:
		return fmt.Sprintf("instruction %d: %s", e.InstructionIndex, e.InstructionKind)
	default:
		return fmt.Sprintf("transaction error: %s", e.Kind)
	}
}

// CustomCode returns the custom program error code, if any
func (e *TransactionError) CustomCode() (uint32, bool) {
	if e == nil || e.InstructionKind != "Custom" {
		return 0, false
	}
	return e.Custom, true
}

// ParseTransactionError decodes the "err" value of a transaction status.
// It returns nil when raw is nil (the transaction succeeded).
func ParseTransactionError(raw interface{}) *TransactionError {
	if raw == nil {
		return nil
	}

	switch v := raw.(type) {
	case []byte:
		return parseRawJSON(v)
	case json.RawMessage:
		return parseRawJSON(v)
	case string:
		return &TransactionError{Kind: v, InstructionIndex: -1, Raw: raw}
	case map[string]interface{}:
		txErr := &TransactionError{InstructionIndex: -1, Raw: raw}
		for kind, body := range v {
			txErr.Kind = kind
			if kind == "InstructionError" {
				parseInstructionError(txErr, body)
			}
			break
		}
		return txErr
	}

	return &TransactionError{Kind: fmt.Sprintf("%v", raw), InstructionIndex: -1, Raw: raw}
}

func parseRawJSON(data []byte) *TransactionError {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return &TransactionError{Kind: string(data), InstructionIndex: -1, Raw: data}
	}
	return ParseTransactionError(decoded)
}

// parseInstructionError decodes [index, "Kind"] or [index, {"Custom": code}]
func parseInstructionError(txErr *TransactionError, body interface{}) {
	pair, ok := body.([]interface{})
	if !ok || len(pair) != 2 {
		return
	}

	if index, ok := toUint64(pair[0]); ok {
		txErr.InstructionIndex = int(index)
	}

	switch detail := pair[1].(type) {
	case string:
		txErr.InstructionKind = detail
	case map[string]interface{}:
		for kind, value := range detail {
			txErr.InstructionKind = kind
			if kind == "Custom" {
				if code, ok := toUint64(value); ok {
					txErr.Custom = uint32(code)
				}
			}
			break
		}
	}
}

// TransactionErrorFrom extracts a TransactionError from an error chain.
// Preflight failures arrive as JSON-RPC errors carrying {"err": ...} in their data.
func TransactionErrorFrom(err error) (*TransactionError, bool) {
	if err == nil {
		return nil, false
	}

	var txErr *TransactionError
	if errors.As(err, &txErr) {
		return txErr, true
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		data, ok := rpcErr.Data.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if parsed := ParseTransactionError(data["err"]); parsed != nil {
			return parsed, true
		}
	}

	return nil, false
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case json.Number:
		parsed, err := strconv.ParseUint(n.String(), 10, 64)
		return parsed, err == nil
	}
	return 0, false
}
