package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex SHA-256 of r's canonical form: its JSON encoding with
// the hash field removed and object keys sorted.
func Hash(r Record) (string, error) {
	r.Hash = ""
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("canonicalize record: %w", err)
	}
	delete(fields, "hash")
	// encoding/json writes map keys in sorted order at every level.
	canonical, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("canonicalize record: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Verification is the result of checking the chain.
type Verification struct {
	Valid        bool   `json:"valid"`
	TotalRecords int    `json:"total_records"`
	FirstInvalid int    `json:"first_invalid_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Verify recomputes every hash and link in the chain.
func (l *Ledger) Verify() Verification {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return verify(l.records)
}

func verify(records []Record) Verification {
	v := Verification{Valid: true, TotalRecords: len(records)}
	prev := GenesisHash
	for _, r := range records {
		if r.PreviousHash != prev {
			return Verification{Valid: false, TotalRecords: len(records), FirstInvalid: r.ID,
				Reason: "previous_hash does not match preceding record"}
		}
		h, err := Hash(r)
		if err != nil || h != r.Hash {
			return Verification{Valid: false, TotalRecords: len(records), FirstInvalid: r.ID,
				Reason: "hash does not match record contents"}
		}
		prev = r.Hash
	}
	return v
}
