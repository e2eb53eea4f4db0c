package marketdata

// AuctionSet is a collection of auctions keyed by symbol. Symbols keep the
// order of the payload they were built from. An AuctionSet is not modified
// after construction, so it is safe for concurrent reads.
type AuctionSet struct {
	symbols  []string
	auctions map[string][]Auction
}

func newAuctionSet(capacity int) *AuctionSet {
	return &AuctionSet{
		symbols:  make([]string, 0, capacity),
		auctions: make(map[string][]Auction, capacity),
	}
}

func (s *AuctionSet) put(symbol string, auctions []Auction) {
	if _, ok := s.auctions[symbol]; !ok {
		s.symbols = append(s.symbols, symbol)
	}
	s.auctions[symbol] = auctions
}

// Aggregate normalizes every auction of the payload. For each symbol the
// closing auctions come first, then the opening ones, both in payload order.
// Null entries are skipped. A nil payload yields an empty set.
//
// The first validation error aborts the whole call and is returned as is.
func (n *Normalizer) Aggregate(payload *RawPayload) (*AuctionSet, error) {
	set := newAuctionSet(payload.Len())
	for _, symbol := range payload.Symbols() {
		raw, _ := payload.Get(symbol)
		auctions, err := n.normalizeAll(symbol, mergeCategories(nil, raw.Closing, raw.Opening))
		if err != nil {
			return nil, err
		}
		set.put(symbol, auctions)
	}
	return set, nil
}

// AggregateDaily is like Aggregate for multi-day payloads. Days are processed
// in payload order, closing before opening within each day.
func (n *Normalizer) AggregateDaily(payload *RawDailyPayload) (*AuctionSet, error) {
	symbols := payload.Symbols()
	set := newAuctionSet(len(symbols))
	for _, symbol := range symbols {
		var entries []RawEntry
		for _, day := range payload.Days(symbol) {
			entries = mergeCategories(entries, day.Closing, day.Opening)
		}
		auctions, err := n.normalizeAll(symbol, entries)
		if err != nil {
			return nil, err
		}
		set.put(symbol, auctions)
	}
	return set, nil
}

// mergeCategories appends the closing then the opening entries to dst,
// leaving out null entries.
func mergeCategories(dst []RawEntry, closing, opening RawCategory) []RawEntry {
	for _, category := range []RawCategory{closing, opening} {
		for _, entry := range category {
			if entry != nil {
				dst = append(dst, entry)
			}
		}
	}
	return dst
}

func (n *Normalizer) normalizeAll(symbol string, entries []RawEntry) ([]Auction, error) {
	auctions := make([]Auction, 0, len(entries))
	for _, entry := range entries {
		a, err := n.Normalize(symbol, entry)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}
	return auctions, nil
}

// NewAuctionSet aggregates payload using the DefaultNormalizer.
func NewAuctionSet(payload *RawPayload) (*AuctionSet, error) {
	return DefaultNormalizer.Aggregate(payload)
}

// NewDailyAuctionSet aggregates a multi-day payload using the DefaultNormalizer.
func NewDailyAuctionSet(payload *RawDailyPayload) (*AuctionSet, error) {
	return DefaultNormalizer.AggregateDaily(payload)
}
