package tokenmetadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Key of a v1 metadata record
const KeyMetadataV1 uint8 = 4

// Fixed field widths of the metadata layout. Strings are stored padded to
// these lengths behind a 4-byte length prefix.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
	MaxCreators     = 5
)

// FirstCreatorOffset is the byte offset of the first creator address in a
// metadata account. Candy machines register themselves as the first creator,
// so a memcmp on this offset selects every item of a drop.
const FirstCreatorOffset = 1 + // key
	32 + // update authority
	32 + // mint
	4 + MaxNameLength +
	4 + MaxURILength +
	4 + MaxSymbolLength +
	2 + // seller fee basis points
	1 + // creators option
	4 // creators vec length

var ErrInvalidMetadata = errors.New("not a metadata account")

type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

type Data struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
}

// Metadata is the on-chain record describing a mint
type Metadata struct {
	Key                 uint8
	UpdateAuthority     solana.PublicKey
	Mint                solana.PublicKey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
}

// Decode decodes a metadata account, trimming the padding of its strings
func Decode(data []byte) (*Metadata, error) {
	md := new(Metadata)
	if err := bin.NewBorshDecoder(data).Decode(md); err != nil {
		return nil, err
	}
	return md, nil
}

// CreatorFilter selects metadata accounts whose first creator is creator
func CreatorFilter(creator solana.PublicKey) rpc.RPCFilter {
	return rpc.RPCFilter{
		Memcmp: &rpc.RPCFilterMemcmp{
			Offset: FirstCreatorOffset,
			Bytes:  solana.Base58(creator.Bytes()),
		},
	}
}

func (md *Metadata) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if md.Key, err = decoder.ReadUint8(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if md.Key != KeyMetadataV1 {
		return fmt.Errorf("%w: unexpected key %d", ErrInvalidMetadata, md.Key)
	}
	if md.UpdateAuthority, err = readPublicKey(decoder); err != nil {
		return fmt.Errorf("unable to decode UpdateAuthority: %w", err)
	}
	if md.Mint, err = readPublicKey(decoder); err != nil {
		return fmt.Errorf("unable to decode Mint: %w", err)
	}
	if md.Data.Name, err = readPaddedString(decoder); err != nil {
		return fmt.Errorf("unable to decode Name: %w", err)
	}
	if md.Data.Symbol, err = readPaddedString(decoder); err != nil {
		return fmt.Errorf("unable to decode Symbol: %w", err)
	}
	if md.Data.URI, err = readPaddedString(decoder); err != nil {
		return fmt.Errorf("unable to decode URI: %w", err)
	}
	if md.Data.SellerFeeBasisPoints, err = decoder.ReadUint16(binary.LittleEndian); err != nil {
		return fmt.Errorf("unable to decode SellerFeeBasisPoints: %w", err)
	}

	hasCreators, err := decoder.ReadUint8()
	if err != nil {
		return fmt.Errorf("unable to decode Creators: %w", err)
	}
	if hasCreators == 1 {
		count, err := decoder.ReadUint32(binary.LittleEndian)
		if err != nil {
			return fmt.Errorf("unable to decode Creators: %w", err)
		}
		if count > MaxCreators {
			return fmt.Errorf("%w: %d creators", ErrInvalidMetadata, count)
		}
		md.Data.Creators = make([]Creator, 0, count)
		for i := uint32(0); i < count; i++ {
			var creator Creator
			if creator.Address, err = readPublicKey(decoder); err != nil {
				return fmt.Errorf("unable to decode creator %d: %w", i, err)
			}
			if creator.Verified, err = decoder.ReadBool(); err != nil {
				return fmt.Errorf("unable to decode creator %d: %w", i, err)
			}
			if creator.Share, err = decoder.ReadUint8(); err != nil {
				return fmt.Errorf("unable to decode creator %d: %w", i, err)
			}
			md.Data.Creators = append(md.Data.Creators, creator)
		}
	}

	if md.PrimarySaleHappened, err = decoder.ReadBool(); err != nil {
		return fmt.Errorf("unable to decode PrimarySaleHappened: %w", err)
	}
	if md.IsMutable, err = decoder.ReadBool(); err != nil {
		return fmt.Errorf("unable to decode IsMutable: %w", err)
	}

	return nil
}

func (md Metadata) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint8(md.Key); err != nil {
		return err
	}
	if err := encoder.WriteBytes(md.UpdateAuthority.Bytes(), false); err != nil {
		return err
	}
	if err := encoder.WriteBytes(md.Mint.Bytes(), false); err != nil {
		return err
	}
	if err := writePaddedString(encoder, md.Data.Name, MaxNameLength); err != nil {
		return err
	}
	if err := writePaddedString(encoder, md.Data.Symbol, MaxSymbolLength); err != nil {
		return err
	}
	if err := writePaddedString(encoder, md.Data.URI, MaxURILength); err != nil {
		return err
	}
	if err := encoder.WriteUint16(md.Data.SellerFeeBasisPoints, binary.LittleEndian); err != nil {
		return err
	}
	if md.Data.Creators == nil {
		if err := encoder.WriteUint8(0); err != nil {
			return err
		}
	} else {
		if err := encoder.WriteUint8(1); err != nil {
			return err
		}
		if err := encoder.WriteUint32(uint32(len(md.Data.Creators)), binary.LittleEndian); err != nil {
			return err
		}
		for _, creator := range md.Data.Creators {
			if err := encoder.WriteBytes(creator.Address.Bytes(), false); err != nil {
				return err
			}
			if err := encoder.WriteBool(creator.Verified); err != nil {
				return err
			}
			if err := encoder.WriteUint8(creator.Share); err != nil {
				return err
			}
		}
	}
	if err := encoder.WriteBool(md.PrimarySaleHappened); err != nil {
		return err
	}
	return encoder.WriteBool(md.IsMutable)
}

// Encode returns the account data of md as the program lays it out
func (md Metadata) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(md); err != nil {
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

func readPaddedString(decoder *bin.Decoder) (string, error) {
	s, err := decoder.ReadRustString()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\x00"), nil
}

func writePaddedString(encoder *bin.Encoder, s string, width int) error {
	if len(s) < width {
		s += strings.Repeat("\x00", width-len(s))
	}
	return encoder.WriteRustString(s)
}
