package marketdata

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() map[Field]interface{} {
	return map[Field]interface{}{
		FieldTimestamp: "2024-01-02T21:00:00.123456789Z",
		FieldCondition: "M",
		FieldPrice:     185.64,
		FieldSize:      float64(2371522),
		FieldExchange:  "Q",
	}
}

func TestNewAuction(t *testing.T) {
	a, err := NewAuction("AAPL", validFields())
	require.NoError(t, err)
	assert.Equal(t, "AAPL", a.Symbol)
	assert.Equal(t, time.Date(2024, 1, 2, 21, 0, 0, 123456789, time.UTC), a.Timestamp)
	assert.Equal(t, "M", a.Condition)
	assert.True(t, decimal.RequireFromString("185.64").Equal(a.Price))
	assert.True(t, decimal.NewFromInt(2371522).Equal(a.Size))
	assert.Equal(t, "Q", a.Exchange)
}

func TestNewAuction_Coercion(t *testing.T) {
	ts := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	for _, tc := range []struct {
		name  string
		price interface{}
		size  interface{}
		want  string
	}{
		{"decimal", decimal.RequireFromString("10.5"), decimal.NewFromInt(3), "10.5"},
		{"int", 10, int64(3), "10"},
		{"small ints", int8(10), uint8(3), "10"},
		{"uint64", uint64(10), uint32(3), "10"},
		{"float32", float32(10.5), uint16(3), "10.5"},
		{"json number", json.Number("10.25"), json.Number("3"), "10.25"},
		{"numeric string", "10.125", "3", "10.125"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewAuction("SPY", map[Field]interface{}{
				FieldTimestamp: ts,
				FieldCondition: "O",
				FieldPrice:     tc.price,
				FieldSize:      tc.size,
				FieldExchange:  "P",
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, a.Price.String())
			assert.Equal(t, "3", a.Size.String())
			assert.Equal(t, ts, a.Timestamp)
		})
	}
}

func TestNewAuction_TimestampInUTC(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))
	for name, val := range map[string]interface{}{
		"time":   ts,
		"local":  ts.Local(),
		"offset": "2024-01-02T09:30:00-05:00",
	} {
		t.Run(name, func(t *testing.T) {
			fields := validFields()
			fields[FieldTimestamp] = val
			a, err := NewAuction("SPY", fields)
			require.NoError(t, err)
			assert.Equal(t, time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), a.Timestamp)
		})
	}
}

func TestNewAuction_MissingFields(t *testing.T) {
	fields := validFields()
	delete(fields, FieldTimestamp)
	fields[FieldPrice] = nil

	_, err := NewAuction("AAPL", fields)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "AAPL", verr.Symbol)
	assert.Equal(t, []Field{FieldTimestamp, FieldPrice}, verr.Fields())
	assert.ErrorIs(t, err, ErrMissingField)
	assert.NotErrorIs(t, err, ErrInvalidField)
	assert.Contains(t, err.Error(), "timestamp: field required")
}

func TestNewAuction_InvalidFields(t *testing.T) {
	for _, tc := range []struct {
		name  string
		field Field
		value interface{}
	}{
		{"bad timestamp", FieldTimestamp, "yesterday"},
		{"numeric timestamp", FieldTimestamp, 1704207600},
		{"numeric condition", FieldCondition, 1},
		{"numeric exchange", FieldExchange, 7.0},
		{"bad price", FieldPrice, "abc"},
		{"bool size", FieldSize, true},
		{"nan price", FieldPrice, math.NaN()},
		{"inf size", FieldSize, math.Inf(1)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fields := validFields()
			fields[tc.field] = tc.value
			_, err := NewAuction("AAPL", fields)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidField)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Errors, 1)
			assert.Equal(t, tc.field, verr.Errors[0].Field)
			assert.NotNil(t, verr.Errors[0].Value)
		})
	}
}

func TestNewAuction_EmptySymbol(t *testing.T) {
	_, err := NewAuction("", validFields())
	assert.ErrorIs(t, err, ErrEmptySymbol)
}

func TestAuctionEqual(t *testing.T) {
	a, err := NewAuction("AAPL", validFields())
	require.NoError(t, err)
	b := a
	b.Price = decimal.RequireFromString("185.640")
	b.Timestamp = a.Timestamp.In(time.FixedZone("EST", -5*3600))
	assert.True(t, a.Equal(b))

	b.Exchange = "P"
	assert.False(t, a.Equal(b))
}
