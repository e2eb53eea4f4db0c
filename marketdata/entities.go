package marketdata

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Auction is a special trade that represents a stock auction
type Auction struct {
	Symbol    string
	Timestamp time.Time
	Condition string
	Price     decimal.Decimal
	Size      decimal.Decimal
	Exchange  string
}

// NewAuction validates the canonical fields and builds an Auction for symbol.
// Every field is required. All problems are reported together in a *ValidationError.
func NewAuction(symbol string, fields map[Field]interface{}) (Auction, error) {
	a := Auction{Symbol: symbol}
	var errs []FieldError
	if symbol == "" {
		errs = append(errs, FieldError{Field: FieldSymbol, Err: ErrEmptySymbol})
	}

	for _, f := range requiredFields {
		val, ok := fields[f]
		if !ok || val == nil {
			errs = append(errs, FieldError{Field: f, Err: ErrMissingField})
			continue
		}
		var err error
		switch f {
		case FieldTimestamp:
			a.Timestamp, err = toTime(val)
		case FieldCondition:
			a.Condition, err = toString(val)
		case FieldPrice:
			a.Price, err = toDecimal(val)
		case FieldSize:
			a.Size, err = toDecimal(val)
		case FieldExchange:
			a.Exchange, err = toString(val)
		}
		if err != nil {
			errs = append(errs, FieldError{Field: f, Err: fmt.Errorf("%w: %v", ErrInvalidField, err), Value: val})
		}
	}

	if len(errs) > 0 {
		return Auction{}, &ValidationError{Symbol: symbol, Errors: errs}
	}
	return a, nil
}

// Equal reports whether a and b describe the same auction. Decimals are
// compared by value and timestamps by instant.
func (a Auction) Equal(b Auction) bool {
	return a.Symbol == b.Symbol &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.Condition == b.Condition &&
		a.Price.Equal(b.Price) &&
		a.Size.Equal(b.Size) &&
		a.Exchange == b.Exchange
}

func toTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		ts, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, err
		}
		return ts.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("expected time or RFC 3339 string")
	}
}

func toString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string")
	}
	return s, nil
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, fmt.Errorf("%v is not a finite number", n)
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Decimal{}, fmt.Errorf("%v is not a finite number", n)
		}
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int8:
		return decimal.NewFromInt(int64(n)), nil
	case int16:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint:
		return decimal.NewFromString(fmt.Sprint(n))
	case uint8:
		return decimal.NewFromInt(int64(n)), nil
	case uint16:
		return decimal.NewFromInt(int64(n)), nil
	case uint32:
		return decimal.NewFromInt(int64(n)), nil
	case uint64:
		return decimal.NewFromString(fmt.Sprint(n))
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Decimal{}, fmt.Errorf("expected number")
	}
}
