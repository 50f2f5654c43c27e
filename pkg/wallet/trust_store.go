package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// TrustStore remembers which accounts were approved for this client.
// An empty path keeps the grants in memory only.
type TrustStore struct {
	path string

	mu      sync.RWMutex
	trusted map[solana.PublicKey]struct{}
}

type trustFile struct {
	Trusted []string `json:"trusted"`
}

// OpenTrustStore loads the grants stored at path; a missing file is an empty store
func OpenTrustStore(path string) (*TrustStore, error) {
	store := &TrustStore{
		path:    path,
		trusted: make(map[solana.PublicKey]struct{}),
	}
	if path == "" {
		return store, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trust file: %w", err)
	}

	var file trustFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode trust file %s: %w", path, err)
	}
	for _, account := range file.Trusted {
		pk, err := solana.PublicKeyFromBase58(account)
		if err != nil {
			return nil, fmt.Errorf("invalid account %q in trust file: %w", account, err)
		}
		store.trusted[pk] = struct{}{}
	}

	return store, nil
}

func (s *TrustStore) IsTrusted(account solana.PublicKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.trusted[account]
	return ok
}

// Trust records a grant for account and persists the store
func (s *TrustStore) Trust(account solana.PublicKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trusted[account] = struct{}{}
	return s.save()
}

// Revoke forgets the grant for account
func (s *TrustStore) Revoke(account solana.PublicKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trusted, account)
	return s.save()
}

func (s *TrustStore) save() error {
	if s.path == "" {
		return nil
	}

	file := trustFile{Trusted: make([]string, 0, len(s.trusted))}
	for pk := range s.trusted {
		file.Trusted = append(file.Trusted, pk.String())
	}
	sort.Strings(file.Trusted)

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create trust directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write trust file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
