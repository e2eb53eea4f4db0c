package marketdata

import (
	"time"

	"cloud.google.com/go/civil"
)

// Symbols returns the symbols of the set in payload order.
func (s *AuctionSet) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// Get returns a copy of the auctions of symbol and whether the symbol is in the set.
func (s *AuctionSet) Get(symbol string) ([]Auction, bool) {
	auctions, ok := s.auctions[symbol]
	if !ok {
		return nil, false
	}
	return append([]Auction{}, auctions...), true
}

// Len returns the total number of auctions across all symbols.
func (s *AuctionSet) Len() int {
	total := 0
	for _, auctions := range s.auctions {
		total += len(auctions)
	}
	return total
}

// Data returns a copy of the auctions keyed by symbol.
func (s *AuctionSet) Data() map[string][]Auction {
	data := make(map[string][]Auction, len(s.auctions))
	for symbol, auctions := range s.auctions {
		data[symbol] = append([]Auction{}, auctions...)
	}
	return data
}

// Records returns every auction of the set, symbol by symbol in payload order.
func (s *AuctionSet) Records() []Auction {
	records := make([]Auction, 0, s.Len())
	for _, symbol := range s.symbols {
		records = append(records, s.auctions[symbol]...)
	}
	return records
}

// Window returns a new set with the auctions whose timestamp is between start and end,
// both inclusive. A zero start or end leaves that side open. Every symbol is kept,
// even if none of its auctions fall in the window.
func (s *AuctionSet) Window(start, end time.Time) *AuctionSet {
	w := newAuctionSet(len(s.symbols))
	for _, symbol := range s.symbols {
		auctions := make([]Auction, 0, len(s.auctions[symbol]))
		for _, a := range s.auctions[symbol] {
			if !start.IsZero() && a.Timestamp.Before(start) {
				continue
			}
			if !end.IsZero() && a.Timestamp.After(end) {
				continue
			}
			auctions = append(auctions, a)
		}
		w.put(symbol, auctions)
	}
	return w
}

// DailyAuctions contains the auctions of a symbol in a single day
type DailyAuctions struct {
	Date     civil.Date
	Auctions []Auction
}

// Days groups the auctions of symbol by their date in loc. Days appear in
// the order their first auction appears. A nil loc means UTC.
func (s *AuctionSet) Days(symbol string, loc *time.Location) []DailyAuctions {
	if loc == nil {
		loc = time.UTC
	}
	var days []DailyAuctions
	index := make(map[civil.Date]int)
	for _, a := range s.auctions[symbol] {
		date := civil.DateOf(a.Timestamp.In(loc))
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, DailyAuctions{Date: date})
		}
		days[i].Auctions = append(days[i].Auctions, a)
	}
	return days
}

// Equal reports whether both sets have the same symbols in the same order
// and equal auctions.
func (s *AuctionSet) Equal(other *AuctionSet) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.symbols) != len(other.symbols) {
		return false
	}
	for i, symbol := range s.symbols {
		if other.symbols[i] != symbol {
			return false
		}
		a, b := s.auctions[symbol], other.auctions[symbol]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if !a[j].Equal(b[j]) {
				return false
			}
		}
	}
	return true
}
