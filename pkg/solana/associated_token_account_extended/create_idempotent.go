package associated_token_account_extended

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	format "github.com/gagliardetto/solana-go/text/format"
	"github.com/gagliardetto/treeout"
)

// CreateIdempotent creates the associated token account of Wallet for Mint,
// succeeding without changes when the account already exists.
type CreateIdempotent struct {
	Payer  solana.PublicKey `bin:"-" borsh_skip:"true"`
	Wallet solana.PublicKey `bin:"-" borsh_skip:"true"`
	Mint   solana.PublicKey `bin:"-" borsh_skip:"true"`

	// [0] = [WRITE, SIGNER] payer
	// [1] = [WRITE] associated token account
	// [2] = [] wallet
	// [3] = [] mint
	// [4] = [] system program
	// [5] = [] token program
	accounts solana.AccountMetaSlice
}

// NewCreateIdempotentInstruction builds the instruction for payer funding the
// holding account of wallet for mint.
func NewCreateIdempotentInstruction(
	payer solana.PublicKey,
	wallet solana.PublicKey,
	mint solana.PublicKey,
) *CreateIdempotent {
	return &CreateIdempotent{
		Payer:  payer,
		Wallet: wallet,
		Mint:   mint,
	}
}

func (inst *CreateIdempotent) GetAccounts() []*solana.AccountMeta {
	return inst.accounts
}

func (inst *CreateIdempotent) SetAccounts(accounts []*solana.AccountMeta) error {
	if len(accounts) < 6 {
		return fmt.Errorf("CreateIdempotent needs 6 accounts, got %d", len(accounts))
	}
	inst.accounts = accounts
	inst.Payer = accounts[0].PublicKey
	inst.Wallet = accounts[2].PublicKey
	inst.Mint = accounts[3].PublicKey
	return nil
}

func (inst CreateIdempotent) MarshalWithEncoder(encoder *bin.Encoder) error {
	// No instruction data besides the variant byte
	return nil
}

func (inst *CreateIdempotent) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	return nil
}

func (inst CreateIdempotent) Validate() error {
	if inst.Payer.IsZero() {
		return errors.New("payer not set")
	}
	if inst.Wallet.IsZero() {
		return errors.New("wallet not set")
	}
	if inst.Mint.IsZero() {
		return errors.New("mint not set")
	}
	return nil
}

// Build resolves the account list and wraps the variant into an Instruction
func (inst CreateIdempotent) Build() *Instruction {
	associatedTokenAddress, _, _ := solana.FindAssociatedTokenAddress(inst.Wallet, inst.Mint)

	inst.accounts = solana.AccountMetaSlice{
		solana.Meta(inst.Payer).WRITE().SIGNER(),
		solana.Meta(associatedTokenAddress).WRITE(),
		solana.Meta(inst.Wallet),
		solana.Meta(inst.Mint),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
	}

	return &Instruction{BaseVariant: bin.BaseVariant{
		Impl:   &inst,
		TypeID: bin.TypeIDFromUint8(Instruction_CreateIdempotent),
	}}
}

// ValidateAndBuild validates the parameters before building
func (inst CreateIdempotent) ValidateAndBuild() (*Instruction, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst.Build(), nil
}

func (inst *CreateIdempotent) EncodeToTree(parent treeout.Branches) {
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction("CreateIdempotent")).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child("Params[len=0]").ParentFunc(func(paramsBranch treeout.Branches) {})
					instructionBranch.Child(fmt.Sprintf("Accounts[len=%d]", len(inst.accounts))).ParentFunc(func(accountsBranch treeout.Branches) {
						names := []string{"payer", "associatedTokenAddress", "wallet", "tokenMint", "systemProgram", "tokenProgram"}
						for i, meta := range inst.accounts {
							if i >= len(names) {
								break
							}
							accountsBranch.Child(format.Meta(names[i], meta))
						}
					})
				})
		})
}
