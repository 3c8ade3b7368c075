package trace

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/roach88/cauldron/internal/event"
)

// DomainEvent prefixes event hashes. The version suffix leaves room for a
// future record layout.
const DomainEvent = "cauldron/event/v1"

// Record is the canonical map form of e. Only the fields meaningful for the
// event's kind are included.
func Record(e event.Event) map[string]any {
	rec := map[string]any{
		"kind": e.Kind.String(),
		"seq":  e.Seq,
		"tick": e.Tick,
	}
	switch e.Kind {
	case event.CheckpointReached:
		rec["checkpoint"] = e.Checkpoint
	case event.IngredientAdded:
		rec["ingredient"] = e.Ingredient
		rec["object"] = e.Object
	case event.IngredientRejected:
		rec["ingredient"] = e.Ingredient
		rec["object"] = e.Object
		rec["reason"] = e.Reason
	}
	return rec
}

// Canonical returns the canonical JSON of e's record.
func Canonical(e event.Event) ([]byte, error) {
	return MarshalCanonical(Record(e))
}

// EventID is a content-addressed identity for e:
// hex(SHA256(DomainEvent + 0x00 + canonical JSON)).
func EventID(e event.Event) (string, error) {
	data, err := Canonical(e)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainEvent))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Lines renders events as canonical JSON, one event per line, with a
// trailing newline. This is the golden-file form of a trace.
func Lines(events []event.Event) ([]byte, error) {
	var buf bytes.Buffer
	for i, e := range events {
		data, err := Canonical(e)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Fingerprint hashes an event stream with XXH3. Two runs that emit the same
// events in the same order share a fingerprint.
func Fingerprint(events []event.Event) (uint64, error) {
	data, err := Lines(events)
	if err != nil {
		return 0, err
	}
	return xxh3.Hash(data), nil
}

// FormatFingerprint renders a fingerprint as 16 hex digits.
func FormatFingerprint(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
