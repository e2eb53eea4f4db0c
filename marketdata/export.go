package marketdata

import (
	"fmt"
	"io"

	"github.com/mailru/easyjson/jwriter"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// MarshalEasyJSON supports easyjson.Marshaler interface
func (a Auction) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawByte('{')
	out.RawString(`"symbol":`)
	out.String(a.Symbol)
	out.RawString(`,"timestamp":`)
	out.Raw(a.Timestamp.MarshalJSON())
	out.RawString(`,"condition":`)
	out.String(a.Condition)
	out.RawString(`,"price":`)
	out.Raw(a.Price.MarshalJSON())
	out.RawString(`,"size":`)
	out.Raw(a.Size.MarshalJSON())
	out.RawString(`,"exchange":`)
	out.String(a.Exchange)
	out.RawByte('}')
}

// MarshalJSON supports json.Marshaler interface
func (a Auction) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	a.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

// MarshalEasyJSON supports easyjson.Marshaler interface. Symbols are written
// in payload order.
func (s *AuctionSet) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawByte('{')
	for i, symbol := range s.symbols {
		if i > 0 {
			out.RawByte(',')
		}
		out.String(symbol)
		out.RawByte(':')
		out.RawByte('[')
		for j, a := range s.auctions[symbol] {
			if j > 0 {
				out.RawByte(',')
			}
			a.MarshalEasyJSON(out)
		}
		out.RawByte(']')
	}
	out.RawByte('}')
}

// MarshalJSON supports json.Marshaler interface
func (s *AuctionSet) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	s.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

type auctionRecord struct {
	Symbol      string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	TimestampNs int64   `parquet:"name=timestamp_ns, type=INT64"`
	Condition   string  `parquet:"name=condition, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price       float64 `parquet:"name=price, type=DOUBLE"`
	Size        float64 `parquet:"name=size, type=DOUBLE"`
	Exchange    string  `parquet:"name=exchange, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// WriteParquet writes every auction of the set to w as a snappy compressed
// parquet file, one row per auction in Records order.
func (s *AuctionSet) WriteParquet(w io.Writer) error {
	pw, err := writer.NewParquetWriterFromWriter(w, new(auctionRecord), 1)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, a := range s.Records() {
		rec := auctionRecord{
			Symbol:      a.Symbol,
			TimestampNs: a.Timestamp.UnixNano(),
			Condition:   a.Condition,
			Price:       a.Price.InexactFloat64(),
			Size:        a.Size.InexactFloat64(),
			Exchange:    a.Exchange,
		}
		if err := pw.Write(rec); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet file: %w", err)
	}
	return nil
}
