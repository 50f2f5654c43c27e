package associated_token_account_extended

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/treeout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPayer = solana.MustPublicKeyFromBase58("SkatebLAUZ9cmbayrLE3wWao3VuFsb1eGE3R7mCs2X2")
	testMint  = solana.MustPublicKeyFromBase58("BuNonfvszzm6dJuzigNbde7qGNmcSYxT64erw3Wboop")
)

func TestCreateIdempotentBuild(t *testing.T) {
	inst := NewCreateIdempotentInstruction(testPayer, testPayer, testMint).Build()

	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, inst.ProgramID())

	data, err := inst.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{Instruction_CreateIdempotent}, data)

	ata, _, err := solana.FindAssociatedTokenAddress(testPayer, testMint)
	require.NoError(t, err)

	accounts := inst.Accounts()
	require.Len(t, accounts, 6)
	assert.Equal(t, testPayer, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsSigner)
	assert.True(t, accounts[0].IsWritable)
	assert.Equal(t, ata, accounts[1].PublicKey)
	assert.True(t, accounts[1].IsWritable)
	assert.Equal(t, testMint, accounts[3].PublicKey)
	assert.Equal(t, solana.SystemProgramID, accounts[4].PublicKey)
	assert.Equal(t, solana.TokenProgramID, accounts[5].PublicKey)
}

func TestCreateIdempotentDecode(t *testing.T) {
	built := NewCreateIdempotentInstruction(testPayer, testPayer, testMint).Build()

	decoded, err := DecodeInstruction(built.Accounts(), []byte{Instruction_CreateIdempotent})
	require.NoError(t, err)

	impl, ok := decoded.Impl.(*CreateIdempotent)
	require.True(t, ok, "expected CreateIdempotent, got %T", decoded.Impl)
	assert.Equal(t, testMint, impl.Mint)
	assert.Equal(t, testPayer, impl.Wallet)

	tree := treeout.New("instruction")
	decoded.EncodeToTree(tree)
	assert.Contains(t, tree.String(), "CreateIdempotent")
}

func TestCreateIdempotentValidate(t *testing.T) {
	_, err := NewCreateIdempotentInstruction(testPayer, testPayer, solana.PublicKey{}).ValidateAndBuild()
	assert.EqualError(t, err, "mint not set")

	_, err = NewCreateIdempotentInstruction(testPayer, testPayer, testMint).ValidateAndBuild()
	assert.NoError(t, err)
}
