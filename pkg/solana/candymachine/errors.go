package candymachine

// Program error codes of Candy Machine v1 (anchor custom errors start at 300)
const (
	ErrIncorrectOwner         uint32 = 0x12c
	ErrUninitialized          uint32 = 0x12d
	ErrMintMismatch           uint32 = 0x12e
	ErrIndexGreaterThanLength uint32 = 0x12f
	ErrConfigMustHaveEntry    uint32 = 0x130
	ErrNumericalOverflow      uint32 = 0x131
	ErrTooManyCreators        uint32 = 0x132
	ErrUUIDLength             uint32 = 0x133
	ErrNotEnoughTokens        uint32 = 0x134
	ErrNotEnoughSOL           uint32 = 0x135
	ErrTokenTransferFailed    uint32 = 0x136
	ErrCandyMachineEmpty      uint32 = 0x137
	ErrCandyMachineNotLiveYet uint32 = 0x138
	ErrConfigLineMismatch     uint32 = 0x139
)

var errorNames = map[uint32]string{
	ErrIncorrectOwner:         "IncorrectOwner",
	ErrUninitialized:          "Uninitialized",
	ErrMintMismatch:           "MintMismatch",
	ErrIndexGreaterThanLength: "IndexGreaterThanLength",
	ErrConfigMustHaveEntry:    "ConfigMustHaveAtleastOneEntry",
	ErrNumericalOverflow:      "NumericalOverflowError",
	ErrTooManyCreators:        "TooManyCreators",
	ErrUUIDLength:             "UuidMustBeExactly6Length",
	ErrNotEnoughTokens:        "NotEnoughTokensToPay",
	ErrNotEnoughSOL:           "NotEnoughSOLToPay",
	ErrTokenTransferFailed:    "TokenTransferFailed",
	ErrCandyMachineEmpty:      "CandyMachineEmpty",
	ErrCandyMachineNotLiveYet: "CandyMachineNotLiveYet",
	ErrConfigLineMismatch:     "ConfigLineMismatch",
}

// ErrorName returns the program's name for code, or "" when unknown
func ErrorName(code uint32) string {
	return errorNames[code]
}
