package models

import "github.com/gagliardetto/solana-go"

// WalletSession is the connection state of the wallet as seen by the client
type WalletSession struct {
	Connecting bool   `json:"connecting"`
	Account    string `json:"account,omitempty"` // empty when no wallet is authorized
}

// Connected reports whether an account has been authorized
func (s WalletSession) Connected() bool {
	return s.Account != ""
}

// DropStats holds the aggregate state of a candy machine drop
type DropStats struct {
	ItemsAvailable  uint64 `json:"itemsAvailable"`
	ItemsRedeemed   uint64 `json:"itemsRedeemed"`
	ItemsRemaining  uint64 `json:"itemsRemaining"`
	GoLiveTimestamp int64  `json:"goLiveTimestamp"` // unix seconds
	GoLiveSet       bool   `json:"goLiveSet"`
	GoLiveDisplay   string `json:"goLiveDisplay"`
	Price           uint64 `json:"price"` // lamports

	Treasury solana.PublicKey `json:"treasury"`
	Config   solana.PublicKey `json:"config"`
}

// SoldOut reports whether every item of the drop has been redeemed
func (s DropStats) SoldOut() bool {
	return s.ItemsRedeemed >= s.ItemsAvailable
}

// MintedItem is one entry of the minted gallery
type MintedItem struct {
	Name     string `json:"name"`
	ImageURI string `json:"imageUri"`
}

// OffchainMetadata is the JSON document referenced by a metadata record's URI
type OffchainMetadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Image       string `json:"image"`
}
