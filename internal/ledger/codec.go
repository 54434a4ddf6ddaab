package ledger

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// wireEntry is the persisted record. Amount is written as a JSON number with
// every digit kept.
type wireEntry struct {
	ID       int64       `json:"id"`
	Label    string      `json:"label"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
}

// storedRecord is what hydration accepts. Older blobs call the label "text".
type storedRecord struct {
	ID       *int64      `json:"id"`
	Label    string      `json:"label"`
	Text     string      `json:"text"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
}

// EncodeEntries produces the persisted blob for entries.
func EncodeEntries(entries []core.Entry) ([]byte, error) {
	out := make([]wireEntry, len(entries))
	for i, e := range entries {
		out[i] = wireEntry{
			ID:       e.ID,
			Label:    e.Label,
			Amount:   json.Number(e.Amount.String()),
			Category: e.Category.String(),
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	return b, nil
}

// DecodeEntries parses a persisted blob. It never fails outright: whatever
// could be read is returned, and a *core.HydrationError describes what was
// not. Absent or blank input is an empty ledger with no error.
func DecodeEntries(raw []byte) ([]core.Entry, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &core.HydrationError{Reason: "not a sequence of records: " + err.Error()}
	}

	var (
		entries = make([]core.Entry, 0, len(records))
		seen    = make(map[int64]struct{}, len(records))
		dropped int
		reasons []string
	)
	for i, rec := range records {
		e, err := decodeRecord(rec)
		if err == nil {
			if _, dup := seen[e.ID]; dup {
				err = fmt.Errorf("duplicate id %d", e.ID)
			}
		}
		if err != nil {
			dropped++
			reasons = append(reasons, fmt.Sprintf("#%d: %v", i, err))
			continue
		}
		seen[e.ID] = struct{}{}
		entries = append(entries, e)
	}

	if dropped > 0 {
		return entries, &core.HydrationError{Dropped: dropped, Reason: strings.Join(reasons, "; ")}
	}
	return entries, nil
}

func decodeRecord(raw json.RawMessage) (core.Entry, error) {
	var r storedRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return core.Entry{}, err
	}
	if r.ID == nil {
		return core.Entry{}, fmt.Errorf("missing id")
	}
	if *r.ID < 0 {
		return core.Entry{}, fmt.Errorf("negative id %d", *r.ID)
	}
	label := r.Label
	if strings.TrimSpace(label) == "" {
		label = r.Text
	}
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return core.Entry{}, fmt.Errorf("amount %q: %w", r.Amount, core.ErrInvalidAmount)
	}
	e := core.Entry{
		ID:       *r.ID,
		Label:    label,
		Amount:   amount,
		Category: core.ParseCategory(r.Category),
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}
