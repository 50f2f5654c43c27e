package solana

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionErrorCustom(t *testing.T) {
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"InstructionError":[4,{"Custom":311}]}`), &raw))

	txErr := ParseTransactionError(raw)
	require.NotNil(t, txErr)
	assert.Equal(t, "InstructionError", txErr.Kind)
	assert.Equal(t, 4, txErr.InstructionIndex)

	code, ok := txErr.CustomCode()
	assert.True(t, ok)
	assert.Equal(t, uint32(0x137), code)
	assert.Equal(t, "instruction 4: custom program error: 0x137", txErr.Error())
}

func TestParseTransactionErrorVariants(t *testing.T) {
	assert.Nil(t, ParseTransactionError(nil))
	assert.Nil(t, ParseTransactionError(json.RawMessage("null")))

	fee := ParseTransactionError("InsufficientFundsForFee")
	require.NotNil(t, fee)
	assert.Equal(t, "InsufficientFundsForFee", fee.Kind)
	assert.Equal(t, -1, fee.InstructionIndex)
	_, ok := fee.CustomCode()
	assert.False(t, ok)

	named := ParseTransactionError(json.RawMessage(`{"InstructionError":[0,"InsufficientFunds"]}`))
	require.NotNil(t, named)
	assert.Equal(t, 0, named.InstructionIndex)
	assert.Equal(t, "InsufficientFunds", named.InstructionKind)

	number := ParseTransactionError(map[string]interface{}{
		"InstructionError": []interface{}{json.Number("2"), map[string]interface{}{"Custom": json.Number("309")}},
	})
	code, ok := number.CustomCode()
	assert.True(t, ok)
	assert.Equal(t, uint32(309), code)
	assert.Equal(t, 2, number.InstructionIndex)
}

func TestTransactionErrorFrom(t *testing.T) {
	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err": map[string]interface{}{
				"InstructionError": []interface{}{float64(4), map[string]interface{}{"Custom": float64(312)}},
			},
		},
	}

	txErr, ok := TransactionErrorFrom(fmt.Errorf("failed to send transaction: %w", rpcErr))
	require.True(t, ok)
	code, _ := txErr.CustomCode()
	assert.Equal(t, uint32(0x138), code)

	wrapped := fmt.Errorf("confirm: %w", &TransactionError{Kind: "AccountNotFound", InstructionIndex: -1})
	txErr, ok = TransactionErrorFrom(wrapped)
	require.True(t, ok)
	assert.Equal(t, "AccountNotFound", txErr.Kind)

	_, ok = TransactionErrorFrom(fmt.Errorf("dial tcp: connection refused"))
	assert.False(t, ok)
	_, ok = TransactionErrorFrom(&jsonrpc.RPCError{Code: -32005, Message: "node is behind"})
	assert.False(t, ok)
}
