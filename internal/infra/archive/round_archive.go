// Package archive persists end-of-round results as compressed JSON files so
// past rounds survive faction score resets.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// RoundResult is the final outcome of a game round, captured before the
// faction scores are reset for the next round.
type RoundResult struct {
	Number     int            `json:"number"`
	Winner     string         `json:"winner"`
	Scores     map[string]int `json:"scores"`
	StartedAt  time.Time      `json:"started_at"`
	EndsAt     time.Time      `json:"ends_at"`
	ResolvedAt time.Time      `json:"resolved_at"`
}

// WriteRound stores the result under dir as round_<NNNNN>.json.zst and
// returns the written path.
func WriteRound(dir string, result RoundResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("round_%05d.json.zst", result.Number))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return "", err
	}
	if err := json.NewEncoder(enc).Encode(result); err != nil {
		enc.Close()
		return "", fmt.Errorf("failed to encode round result: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to flush archive: %w", err)
	}
	return path, nil
}

// ReadRound loads a previously archived round result.
func ReadRound(path string) (RoundResult, error) {
	var result RoundResult
	f, err := os.Open(path)
	if err != nil {
		return result, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return result, err
	}
	defer dec.Close()

	if err := json.NewDecoder(dec).Decode(&result); err != nil {
		return result, fmt.Errorf("failed to decode round archive %s: %w", path, err)
	}
	return result, nil
}
