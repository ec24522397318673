package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// StoredClaim is the decoded form of a raw claim value.
// It is either a LegacyClaim or a StructuredClaim.
type StoredClaim interface {
	isStoredClaim()
}

// LegacyClaim is a claim stored as the bare claimer name, predating the JSON schema
type LegacyClaim struct {
	Claimer string
}

// StructuredClaim is a claim stored as a JSON object.
// Pointer fields distinguish absent values from zero values.
type StructuredClaim struct {
	Claimer      string
	Email        string
	Verified     *bool
	Product      *string
	LastModified *Millis
	Timestamp    *Millis
}

// Millis is an epoch-millisecond timestamp that tolerates numeric strings and float notation
type Millis int64

func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	// Unparsable values count as missing rather than invalidating the whole record
	if v, ok := ParseMillis(string(data)); ok {
		*m = Millis(v)
	}
	return nil
}

func (LegacyClaim) isStoredClaim()     {}
func (StructuredClaim) isStoredClaim() {}

// ParseStoredClaim decodes a raw stored value.
// Anything that is not a JSON object is treated as a legacy bare-string claim.
func ParseStoredClaim(raw string) StoredClaim {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err == nil {
			return structuredFromFields(fields)
		}
	}

	// A JSON string literal holds the claimer name itself
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err == nil {
			return LegacyClaim{Claimer: name}
		}
	}

	return LegacyClaim{Claimer: raw}
}

// structuredFromFields maps the known fields one at a time.
// A field holding the wrong JSON type counts as absent.
func structuredFromFields(fields map[string]json.RawMessage) StructuredClaim {
	var c StructuredClaim
	c.Claimer, _ = decodeField[string](fields, "claimer")
	c.Email, _ = decodeField[string](fields, "email")
	if v, ok := decodeField[bool](fields, "verified"); ok {
		c.Verified = &v
	}
	if v, ok := decodeField[string](fields, "product"); ok {
		c.Product = &v
	}
	if v, ok := decodeField[Millis](fields, "lastModified"); ok {
		c.LastModified = &v
	}
	if v, ok := decodeField[Millis](fields, "timestamp"); ok {
		c.Timestamp = &v
	}
	return c
}

func decodeField[T any](fields map[string]json.RawMessage, name string) (T, bool) {
	var v T
	raw, ok := fields[name]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// NormalizeClaim turns a raw stored value into a ClaimRecord.
// now (epoch millis) is the fallback for records without a modification time.
// The KV sync path and the live claim API must both read claims through this function.
func NormalizeClaim(itemID, raw string, now int64) ClaimRecord {
	return ToClaimRecord(itemID, ParseStoredClaim(raw), now)
}

// ToClaimRecord converts a decoded stored claim into the canonical record
func ToClaimRecord(itemID string, stored StoredClaim, now int64) ClaimRecord {
	switch c := stored.(type) {
	case StructuredClaim:
		record := ClaimRecord{
			ItemID:       itemID,
			Claimer:      c.Claimer,
			Email:        c.Email,
			LastModified: now,
		}
		if c.Verified != nil {
			record.Verified = *c.Verified
		}
		if c.Product != nil {
			record.Product = *c.Product
		}
		switch {
		case c.LastModified != nil && *c.LastModified > 0:
			record.LastModified = int64(*c.LastModified)
		case c.Timestamp != nil && *c.Timestamp > 0:
			record.LastModified = int64(*c.Timestamp)
		}
		return record
	case LegacyClaim:
		return ClaimRecord{
			ItemID:       itemID,
			Claimer:      c.Claimer,
			LastModified: now,
		}
	default:
		return ClaimRecord{ItemID: itemID, LastModified: now}
	}
}

// EncodeClaim serializes a record into the structured JSON stored in the KV namespace
func EncodeClaim(record ClaimRecord) ([]byte, error) {
	return json.Marshal(record)
}

// ParseMillis parses an epoch-millisecond value written either as an integer or in float notation
func ParseMillis(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
