package candymachine

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrInvalidAccount is returned for data that is not a candy machine account
var ErrInvalidAccount = errors.New("not a candy machine account")

// AccountDiscriminator prefixes every CandyMachine account
var AccountDiscriminator = anchorDiscriminator("account:CandyMachine")

// CandyMachineData is the configurable part of a candy machine
type CandyMachineData struct {
	UUID           string
	Price          uint64
	ItemsAvailable uint64
	GoLiveDate     *int64
}

// CandyMachine is the on-chain state of a drop
type CandyMachine struct {
	Authority     solana.PublicKey
	Wallet        solana.PublicKey
	TokenMint     *solana.PublicKey
	Config        solana.PublicKey
	Data          CandyMachineData
	ItemsRedeemed uint64
	Bump          uint8
}

// DecodeCandyMachine decodes the raw data of a candy machine account
func DecodeCandyMachine(data []byte) (*CandyMachine, error) {
	machine := new(CandyMachine)
	if err := bin.NewBorshDecoder(data).Decode(machine); err != nil {
		return nil, err
	}
	return machine, nil
}

func (cm *CandyMachine) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	discriminator, err := decoder.ReadNBytes(8)
	if err != nil {
		return fmt.Errorf("%w: unable to read discriminator: %v", ErrInvalidAccount, err)
	}
	if !bytes.Equal(discriminator, AccountDiscriminator[:]) {
		return fmt.Errorf("%w: unexpected discriminator %x", ErrInvalidAccount, discriminator)
	}

	if cm.Authority, err = readPublicKey(decoder); err != nil {
		return fmt.Errorf("unable to decode Authority: %w", err)
	}
	if cm.Wallet, err = readPublicKey(decoder); err != nil {
		return fmt.Errorf("unable to decode Wallet: %w", err)
	}
	if cm.TokenMint, err = readOptionalPublicKey(decoder); err != nil {
		return fmt.Errorf("unable to decode TokenMint: %w", err)
	}
	if cm.Config, err = readPublicKey(decoder); err != nil {
		return fmt.Errorf("unable to decode Config: %w", err)
	}

	if cm.Data.UUID, err = decoder.ReadRustString(); err != nil {
		return fmt.Errorf("unable to decode UUID: %w", err)
	}
	if cm.Data.Price, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return fmt.Errorf("unable to decode Price: %w", err)
	}
	if cm.Data.ItemsAvailable, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return fmt.Errorf("unable to decode ItemsAvailable: %w", err)
	}
	hasGoLive, err := decoder.ReadUint8()
	if err != nil {
		return fmt.Errorf("unable to decode GoLiveDate: %w", err)
	}
	if hasGoLive == 1 {
		goLive, err := decoder.ReadInt64(binary.LittleEndian)
		if err != nil {
			return fmt.Errorf("unable to decode GoLiveDate: %w", err)
		}
		cm.Data.GoLiveDate = &goLive
	}

	if cm.ItemsRedeemed, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return fmt.Errorf("unable to decode ItemsRedeemed: %w", err)
	}
	if cm.Bump, err = decoder.ReadUint8(); err != nil {
		return fmt.Errorf("unable to decode Bump: %w", err)
	}

	return nil
}

func (cm CandyMachine) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(AccountDiscriminator[:], false); err != nil {
		return err
	}
	if err := encoder.WriteBytes(cm.Authority.Bytes(), false); err != nil {
		return err
	}
	if err := encoder.WriteBytes(cm.Wallet.Bytes(), false); err != nil {
		return err
	}
	if err := writeOptionalPublicKey(encoder, cm.TokenMint); err != nil {
		return err
	}
	if err := encoder.WriteBytes(cm.Config.Bytes(), false); err != nil {
		return err
	}
	if err := encoder.WriteRustString(cm.Data.UUID); err != nil {
		return err
	}
	if err := encoder.WriteUint64(cm.Data.Price, binary.LittleEndian); err != nil {
		return err
	}
	if err := encoder.WriteUint64(cm.Data.ItemsAvailable, binary.LittleEndian); err != nil {
		return err
	}
	if cm.Data.GoLiveDate == nil {
		if err := encoder.WriteUint8(0); err != nil {
			return err
		}
	} else {
		if err := encoder.WriteUint8(1); err != nil {
			return err
		}
		if err := encoder.WriteInt64(*cm.Data.GoLiveDate, binary.LittleEndian); err != nil {
			return err
		}
	}
	if err := encoder.WriteUint64(cm.ItemsRedeemed, binary.LittleEndian); err != nil {
		return err
	}
	return encoder.WriteUint8(cm.Bump)
}

// Encode returns the account data of cm, the inverse of DecodeCandyMachine
func (cm CandyMachine) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(cm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readPublicKey(decoder *bin.Decoder) (solana.PublicKey, error) {
	raw, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

func readOptionalPublicKey(decoder *bin.Decoder) (*solana.PublicKey, error) {
	present, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	pk, err := readPublicKey(decoder)
	if err != nil {
		return nil, err
	}
	return &pk, nil
}

func writeOptionalPublicKey(encoder *bin.Encoder, pk *solana.PublicKey) error {
	if pk == nil {
		return encoder.WriteUint8(0)
	}
	if err := encoder.WriteUint8(1); err != nil {
		return err
	}
	return encoder.WriteBytes(pk.Bytes(), false)
}

func anchorDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte(name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}
