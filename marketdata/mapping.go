package marketdata

import "fmt"

// Field is the canonical name of an Auction attribute.
type Field string

// List of canonical auction fields
const (
	FieldTimestamp Field = "timestamp"
	FieldCondition Field = "condition"
	FieldPrice     Field = "price"
	FieldSize      Field = "size"
	FieldExchange  Field = "exchange"

	// FieldSymbol is supplied by the caller, never by a mapping.
	FieldSymbol Field = "symbol"
)

// requiredFields lists the fields every Auction must have, in the order
// validation reports them.
var requiredFields = []Field{
	FieldTimestamp,
	FieldCondition,
	FieldPrice,
	FieldSize,
	FieldExchange,
}

func isKnownField(f Field) bool {
	for _, rf := range requiredFields {
		if rf == f {
			return true
		}
	}
	return false
}

// FieldMapping translates provider field codes to canonical field names.
type FieldMapping map[string]Field

// AuctionMapping is the field mapping of the auctions endpoint.
var AuctionMapping = FieldMapping{
	"t": FieldTimestamp,
	"x": FieldExchange,
	"p": FieldPrice,
	"s": FieldSize,
	"c": FieldCondition,
}

// Translate returns the canonical fields of raw. Keys missing from the
// mapping are dropped.
func (m FieldMapping) Translate(raw RawEntry) map[Field]interface{} {
	fields := make(map[Field]interface{}, len(m))
	for key, val := range raw {
		if f, ok := m[key]; ok {
			fields[f] = val
		}
	}
	return fields
}

// Unknown returns the keys of raw that the mapping does not know about.
func (m FieldMapping) Unknown(raw RawEntry) []string {
	var keys []string
	for key := range raw {
		if _, ok := m[key]; !ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Validate checks that every code maps to a known field and that no two
// codes share a target.
func (m FieldMapping) Validate() error {
	seen := make(map[Field]string, len(m))
	for code, f := range m {
		if !isKnownField(f) {
			return fmt.Errorf("%w: %q (code %q)", ErrUnknownField, f, code)
		}
		if other, ok := seen[f]; ok {
			return fmt.Errorf("%w: %q and %q both map to %q", ErrDuplicateTarget, other, code, f)
		}
		seen[f] = code
	}
	return nil
}
