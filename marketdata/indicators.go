package marketdata

import (
	"errors"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/shopspring/decimal"
)

// ErrInvalidWindow is returned when a moving average is requested with a window smaller than 1
var ErrInvalidWindow = errors.New("window must be at least 1")

// AuctionStats summarizes the auctions of a symbol. VWAP is the size weighted
// average price, zero if the total size is zero.
type AuctionStats struct {
	Count     int
	TotalSize decimal.Decimal
	VWAP      decimal.Decimal
}

// Stats calculates the auction statistics of symbol.
func (s *AuctionSet) Stats(symbol string) AuctionStats {
	var (
		totalSize  decimal.Decimal
		totalValue decimal.Decimal
	)
	auctions := s.auctions[symbol]
	for _, a := range auctions {
		totalSize = totalSize.Add(a.Size)
		totalValue = totalValue.Add(a.Price.Mul(a.Size))
	}
	stats := AuctionStats{
		Count:     len(auctions),
		TotalSize: totalSize,
	}
	if !totalSize.IsZero() {
		stats.VWAP = totalValue.Div(totalSize)
	}
	return stats
}

// MovingAveragePrice returns the moving average of the auction prices of symbol,
// one value per auction. Until window auctions are seen the average covers
// the auctions seen so far.
func (s *AuctionSet) MovingAveragePrice(symbol string, window int) ([]float64, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}
	auctions := s.auctions[symbol]
	ma := movingaverage.New(window)
	averages := make([]float64, 0, len(auctions))
	for _, a := range auctions {
		ma.Add(a.Price.InexactFloat64())
		averages = append(averages, ma.Avg())
	}
	return averages, nil
}
