package solana

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrDerivation is returned when a program-derived address cannot be found
var ErrDerivation = errors.New("address derivation failed")

var (
	metadataSeed = []byte("metadata")
	editionSeed  = []byte("edition")
)

// FindMetadataAddress calculates the metadata record address of a mint
func FindMetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		metadataSeed,
		solana.TokenMetadataProgramID.Bytes(),
		mint.Bytes(),
	}

	return findProgramAddress(seeds, solana.TokenMetadataProgramID)
}

// FindMasterEditionAddress calculates the master edition address of a mint
func FindMasterEditionAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		metadataSeed,
		solana.TokenMetadataProgramID.Bytes(),
		mint.Bytes(),
		editionSeed,
	}

	return findProgramAddress(seeds, solana.TokenMetadataProgramID)
}

// FindAssociatedTokenAddress calculates the holding account of wallet for mint
func FindAssociatedTokenAddress(wallet solana.PublicKey, mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		wallet.Bytes(),
		solana.TokenProgramID.Bytes(),
		mint.Bytes(),
	}

	return findProgramAddress(seeds, solana.SPLAssociatedTokenAccountProgramID)
}

func findProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrDerivation, err)
	}

	return addr, nil
}
