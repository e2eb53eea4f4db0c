package marketdata

import "sort"

// NormalizerOpts contains options for the Normalizer.
type NormalizerOpts struct {
	// Mapping translates provider field codes. Defaults to AuctionMapping.
	Mapping FieldMapping
	// Logger receives reports about dropped keys and null fields.
	// Defaults to a stderr logger that skips info messages.
	Logger Logger
}

// Normalizer turns raw auction payloads into validated auctions.
// It is safe for concurrent use.
type Normalizer struct {
	mapping FieldMapping
	logger  Logger
}

// NewNormalizer creates a new Normalizer using the given opts.
// It returns an error if the mapping is not usable.
func NewNormalizer(opts NormalizerOpts) (*Normalizer, error) {
	mapping := opts.Mapping
	if mapping == nil {
		mapping = AuctionMapping
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	// copy so later changes to the caller's map have no effect
	m := make(FieldMapping, len(mapping))
	for code, f := range mapping {
		m[code] = f
	}
	logger := opts.Logger
	if logger == nil {
		logger = newStdLog(nil)
	}
	return &Normalizer{
		mapping: m,
		logger:  logger,
	}, nil
}

// DefaultNormalizer uses AuctionMapping and the default logger.
var DefaultNormalizer = mustNormalizer(NormalizerOpts{})

func mustNormalizer(opts NormalizerOpts) *Normalizer {
	n, err := NewNormalizer(opts)
	if err != nil {
		panic(err)
	}
	return n
}

// Normalize builds an Auction for symbol from a raw entry. Keys unknown to the
// mapping are dropped. A nil entry is passed on with no fields and therefore
// fails validation. Validation errors are returned as *ValidationError.
func (n *Normalizer) Normalize(symbol string, raw RawEntry) (Auction, error) {
	fields := map[Field]interface{}{}
	if raw != nil {
		fields = n.mapping.Translate(raw)
		if nulls := nullFields(fields); len(nulls) > 0 {
			n.logger.Warnf("marketdata: null auction fields of %s: %v", symbol, nulls)
		}
		if unknown := n.mapping.Unknown(raw); len(unknown) > 0 {
			sort.Strings(unknown)
			n.logger.Infof("marketdata: dropped unknown auction fields of %s: %v", symbol, unknown)
		}
	}
	return NewAuction(symbol, fields)
}

func nullFields(fields map[Field]interface{}) []Field {
	var nulls []Field
	for _, f := range requiredFields {
		if v, ok := fields[f]; ok && v == nil {
			nulls = append(nulls, f)
		}
	}
	return nulls
}

// Normalize builds an Auction using the DefaultNormalizer.
func Normalize(symbol string, raw RawEntry) (Auction, error) {
	return DefaultNormalizer.Normalize(symbol, raw)
}
