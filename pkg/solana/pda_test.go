package solana

import (
	"testing"

	sln "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMetadataAddress(t *testing.T) {
	mint := sln.MustPublicKeyFromBase58("BuNonfvszzm6dJuzigNbde7qGNmcSYxT64erw3Wboop")

	metadata, err := FindMetadataAddress(mint)
	require.NoError(t, err)
	assert.NotEqual(t, sln.PublicKey{}, metadata)

	// Verify deterministic behavior
	metadataDuplicate, err := FindMetadataAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, metadata, metadataDuplicate, "metadata addresses with the same mint should be equal")

	otherMint := sln.MustPublicKeyFromBase58("J7cV46t2BLkoHWvmrcG1nK3wgB2D1EmHLko29bEDbnpV")
	otherMetadata, err := FindMetadataAddress(otherMint)
	require.NoError(t, err)
	assert.NotEqual(t, metadata, otherMetadata, "metadata addresses of different mints should be different")
}

func TestFindMasterEditionAddress(t *testing.T) {
	mint := sln.MustPublicKeyFromBase58("BuNonfvszzm6dJuzigNbde7qGNmcSYxT64erw3Wboop")

	edition, err := FindMasterEditionAddress(mint)
	require.NoError(t, err)

	metadata, err := FindMetadataAddress(mint)
	require.NoError(t, err)
	assert.NotEqual(t, metadata, edition, "the edition seed must change the address")

	editionDuplicate, err := FindMasterEditionAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, edition, editionDuplicate)
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	wallet := sln.MustPublicKeyFromBase58("SkatebLAUZ9cmbayrLE3wWao3VuFsb1eGE3R7mCs2X2")
	mint := sln.MustPublicKeyFromBase58("BuNonfvszzm6dJuzigNbde7qGNmcSYxT64erw3Wboop")

	ata, err := FindAssociatedTokenAddress(wallet, mint)
	require.NoError(t, err)

	// Must agree with the library's own derivation
	expected, _, err := sln.FindAssociatedTokenAddress(wallet, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, ata)

	differentWallet := sln.MustPublicKeyFromBase58("EeNF8G475Y7NGYJasMiB3c1u51JfzJKKYqzXmvTb3GTf")
	ata2, err := FindAssociatedTokenAddress(differentWallet, mint)
	require.NoError(t, err)
	assert.NotEqual(t, ata, ata2, "holding accounts of different wallets should be different")
}
