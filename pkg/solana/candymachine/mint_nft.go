package candymachine

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	format "github.com/gagliardetto/solana-go/text/format"
	"github.com/gagliardetto/treeout"
)

// ProgramID of Candy Machine v1. Deployments may override it through SetProgramID.
var ProgramID solana.PublicKey = solana.MustPublicKeyFromBase58("cndyAnrLdpjq1Ssp1z8xxDsB8dxe7u4HL5Nxi2K5WXZ")

func SetProgramID(pubkey solana.PublicKey) {
	ProgramID = pubkey
	solana.RegisterInstructionDecoder(ProgramID, registryDecodeInstruction)
}

const ProgramName = "CandyMachine"

func init() {
	solana.RegisterInstructionDecoder(ProgramID, registryDecodeInstruction)
}

var ErrUnknownInstruction = errors.New("unknown candy machine instruction")

var mintNftDiscriminator = anchorDiscriminator("global:mint_nft")

// MintNft redeems one item of a candy machine into a freshly initialized mint
type MintNft struct {
	accounts solana.AccountMetaSlice
}

func (inst *MintNft) ProgramID() solana.PublicKey {
	return ProgramID
}

func (inst *MintNft) Accounts() []*solana.AccountMeta {
	return inst.accounts
}

func (inst *MintNft) GetAccounts() solana.AccountMetaSlice {
	return inst.accounts
}

func (inst *MintNft) SetAccounts(accounts []*solana.AccountMeta) error {
	if len(accounts) != len(mintNftAccountNames) {
		return fmt.Errorf("mint_nft needs %d accounts, got %d", len(mintNftAccountNames), len(accounts))
	}
	inst.accounts = accounts
	return nil
}

func (inst *MintNft) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(inst); err != nil {
		return nil, fmt.Errorf("unable to encode instruction: %w", err)
	}
	return buf.Bytes(), nil
}

func (inst *MintNft) Build() solana.Instruction {
	return inst
}

func (inst *MintNft) MarshalWithEncoder(encoder *bin.Encoder) error {
	// mint_nft takes no arguments
	return encoder.WriteBytes(mintNftDiscriminator[:], false)
}

// MintNftAccounts lists the accounts of a mint_nft call
type MintNftAccounts struct {
	Config          solana.PublicKey
	CandyMachine    solana.PublicKey
	Payer           solana.PublicKey
	Treasury        solana.PublicKey
	Metadata        solana.PublicKey
	Mint            solana.PublicKey
	MintAuthority   solana.PublicKey
	UpdateAuthority solana.PublicKey
	MasterEdition   solana.PublicKey
}

// NewMintNftInstructionBuilder creates the mint_nft instruction
func NewMintNftInstructionBuilder(accounts MintNftAccounts) *MintNft {
	nd := &MintNft{
		accounts: make(solana.AccountMetaSlice, 14),
	}
	nd.accounts[0] = solana.Meta(accounts.Config)
	nd.accounts[1] = solana.Meta(accounts.CandyMachine).WRITE()
	nd.accounts[2] = solana.Meta(accounts.Payer).WRITE().SIGNER()
	nd.accounts[3] = solana.Meta(accounts.Treasury).WRITE()
	nd.accounts[4] = solana.Meta(accounts.Metadata).WRITE()
	nd.accounts[5] = solana.Meta(accounts.Mint).WRITE()
	nd.accounts[6] = solana.Meta(accounts.MintAuthority).SIGNER()
	nd.accounts[7] = solana.Meta(accounts.UpdateAuthority).SIGNER()
	nd.accounts[8] = solana.Meta(accounts.MasterEdition).WRITE()
	nd.accounts[9] = solana.Meta(solana.TokenMetadataProgramID)
	nd.accounts[10] = solana.Meta(solana.TokenProgramID)
	nd.accounts[11] = solana.Meta(solana.SystemProgramID)
	nd.accounts[12] = solana.Meta(solana.SysVarRentPubkey)
	nd.accounts[13] = solana.Meta(solana.SysVarClockPubkey)

	return nd
}

var mintNftAccountNames = []string{
	"config", "candyMachine", "payer", "treasury", "metadata", "mint", "mintAuthority",
	"updateAuthority", "masterEdition", "tokenMetadataProgram", "tokenProgram",
	"systemProgram", "rent", "clock",
}

func (inst *MintNft) EncodeToTree(parent treeout.Branches) {
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction("MintNft")).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child("Params[len=0]").ParentFunc(func(paramsBranch treeout.Branches) {})
					instructionBranch.Child(fmt.Sprintf("Accounts[len=%d]", len(inst.accounts))).ParentFunc(func(accountsBranch treeout.Branches) {
						for i, meta := range inst.accounts {
							if i >= len(mintNftAccountNames) {
								break
							}
							accountsBranch.Child(format.Meta(mintNftAccountNames[i], meta))
						}
					})
				})
		})
}

// DecodeInstruction decodes a candy machine instruction and attaches its accounts.
// Only mint_nft is known.
func DecodeInstruction(accounts []*solana.AccountMeta, data []byte) (*MintNft, error) {
	if len(data) < len(mintNftDiscriminator) || !bytes.Equal(data[:len(mintNftDiscriminator)], mintNftDiscriminator[:]) {
		return nil, ErrUnknownInstruction
	}
	inst := new(MintNft)
	if err := inst.SetAccounts(accounts); err != nil {
		return nil, fmt.Errorf("unable to set accounts for instruction: %w", err)
	}
	return inst, nil
}

func registryDecodeInstruction(accounts []*solana.AccountMeta, data []byte) (interface{}, error) {
	inst, err := DecodeInstruction(accounts, data)
	if err != nil {
		return nil, err
	}
	return inst, nil
}
