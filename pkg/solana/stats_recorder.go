package solana

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MintStatus represents the outcome of a mint attempt
type MintStatus string

const (
	// StatusConfirmed represents a mint confirmed on chain
	StatusConfirmed MintStatus = "CONFIRMED"
	// StatusFailed represents a mint rejected by the program or the runtime
	StatusFailed MintStatus = "FAILED"
)

// MintRecord stores the ledger entry of one mint attempt
type MintRecord struct {
	Timestamp time.Time
	Drop      string
	Mint      string
	Fee       uint64 // in lamports
	Signature string
	Status    MintStatus
	Message   string
}

// MintSummary contains summary statistics of the ledger
type MintSummary struct {
	Last24h  int     // Confirmed mints in the last 24 hours
	LastWeek int     // Confirmed mints in the last week
	Total    int     // Confirmed mints overall
	Failed   int     // Failed attempts overall
	FeesSol  float64 // Fees paid by confirmed mints, in SOL
}

// StatsRecorder handles recording the mint ledger
type StatsRecorder struct {
	dataDir string
	mu      sync.Mutex
	now     func() time.Time
}

// NewStatsRecorder creates a new ledger recorder
func NewStatsRecorder(dataDir string) (*StatsRecorder, error) {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &StatsRecorder{
		dataDir: dataDir,
		now:     time.Now,
	}, nil
}

// RecordConfirmedMint records a mint confirmed on chain
func (s *StatsRecorder) RecordConfirmedMint(drop, mint string, fee uint64, signature string) error {
	return s.record(MintRecord{
		Timestamp: s.now(),
		Drop:      drop,
		Mint:      mint,
		Fee:       fee,
		Signature: signature,
		Status:    StatusConfirmed,
	})
}

// RecordFailedMint records a mint attempt that did not go through
func (s *StatsRecorder) RecordFailedMint(drop, mint, signature, message string) error {
	return s.record(MintRecord{
		Timestamp: s.now(),
		Drop:      drop,
		Mint:      mint,
		Signature: signature,
		Status:    StatusFailed,
		Message:   message,
	})
}

// GetMintSummary calculates ledger statistics for different time periods
func (s *StatsRecorder) GetMintSummary() (MintSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := MintSummary{}

	now := s.now()
	last24h := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	files, err := s.getLedgerFiles()
	if err != nil {
		return summary, err
	}

	var fees uint64
	for _, file := range files {
		records, err := s.readLedgerFile(file)
		if err != nil {
			continue
		}

		for _, record := range records {
			if record.Status != StatusConfirmed {
				summary.Failed++
				continue
			}

			summary.Total++
			fees += record.Fee
			if record.Timestamp.After(last24h) {
				summary.Last24h++
			}
			if record.Timestamp.After(lastWeek) {
				summary.LastWeek++
			}
		}
	}

	summary.FeesSol = lamportsToSol(fees)

	return summary, nil
}

// getLedgerFiles returns a list of ledger file paths
func (s *StatsRecorder) getLedgerFiles() ([]string, error) {
	pattern := filepath.Join(s.dataDir, "mints_*.csv")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger files: %w", err)
	}
	return matches, nil
}

// readLedgerFile reads and parses a ledger file
func (s *StatsRecorder) readLedgerFile(filePath string) ([]MintRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}

	var out []MintRecord

	// Skip header row
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 7 {
			continue
		}

		timestamp, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			continue
		}

		out = append(out, MintRecord{
			Timestamp: timestamp,
			Status:    MintStatus(record[1]),
			Drop:      record[2],
			Mint:      record[3],
			Fee:       parseSOLToLamports(record[4]),
			Signature: record[5],
			Message:   record[6],
		})
	}

	return out, nil
}

// parseSOLToLamports converts a SOL string value to lamports
func parseSOLToLamports(solValue string) uint64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(solValue), 64)
	if err != nil || value < 0 {
		return 0
	}

	return uint64(value*1_000_000_000 + 0.5)
}

func lamportsToSol(lamports uint64) float64 {
	return float64(lamports) / 1_000_000_000
}

// record appends a ledger entry to the CSV file of the current month
func (s *StatsRecorder) record(record MintRecord) error {
	if s == nil {
		return fmt.Errorf("stats recorder is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filename := fmt.Sprintf("mints_%s.csv", record.Timestamp.Format("2006-01"))
	path := filepath.Join(s.dataDir, filename)

	fileExists := false
	if _, err := os.Stat(path); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if !fileExists {
		header := []string{
			"Timestamp", "Status", "Drop", "Mint",
			"Fee (SOL)", "Transaction Signature", "Message",
		}
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := []string{
		record.Timestamp.Format(time.RFC3339),
		string(record.Status),
		record.Drop,
		record.Mint,
		fmt.Sprintf("%.9f", lamportsToSol(record.Fee)),
		record.Signature,
		record.Message,
	}

	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	writer.Flush()
	return writer.Error()
}
