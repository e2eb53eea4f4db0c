package marketdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/mailru/easyjson/jlexer"
	"github.com/vmihailenco/msgpack/v5"
)

// RawEntry is a single auction as sent by the provider, keyed by field code.
// A nil RawEntry stands for a null entry.
type RawEntry map[string]interface{}

// RawCategory is the list of auctions of one kind (opening or closing).
// A nil RawCategory means the category was absent or null.
type RawCategory []RawEntry

// RawSymbolAuctions contains the raw closing and opening auctions of a symbol.
type RawSymbolAuctions struct {
	Closing RawCategory `json:"c"`
	Opening RawCategory `json:"o"`
}

// RawDailyAuctions contains the raw auctions of a symbol in a single day
type RawDailyAuctions struct {
	Date    civil.Date  `json:"d"`
	Closing RawCategory `json:"c"`
	Opening RawCategory `json:"o"`
}

// RawPayload is the raw auctions payload keyed by symbol. It remembers the
// order in which symbols were added or decoded. A nil *RawPayload is the
// null payload.
type RawPayload struct {
	symbols  []string
	auctions map[string]RawSymbolAuctions
}

// NewRawPayload returns an empty payload.
func NewRawPayload() *RawPayload {
	return &RawPayload{auctions: make(map[string]RawSymbolAuctions)}
}

// Set sets the raw auctions of symbol. A symbol that is already present keeps its position.
func (p *RawPayload) Set(symbol string, auctions RawSymbolAuctions) *RawPayload {
	if p.auctions == nil {
		p.auctions = make(map[string]RawSymbolAuctions)
	}
	if _, ok := p.auctions[symbol]; !ok {
		p.symbols = append(p.symbols, symbol)
	}
	p.auctions[symbol] = auctions
	return p
}

// Get returns the raw auctions of symbol.
func (p *RawPayload) Get(symbol string) (RawSymbolAuctions, bool) {
	if p == nil {
		return RawSymbolAuctions{}, false
	}
	a, ok := p.auctions[symbol]
	return a, ok
}

// Symbols returns the symbols in input order.
func (p *RawPayload) Symbols() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.symbols...)
}

// Len returns the number of symbols.
func (p *RawPayload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.symbols)
}

// RawDailyPayload is the multi-day raw auctions payload keyed by symbol, in input order.
type RawDailyPayload struct {
	symbols []string
	days    map[string][]RawDailyAuctions
}

// NewRawDailyPayload returns an empty daily payload.
func NewRawDailyPayload() *RawDailyPayload {
	return &RawDailyPayload{days: make(map[string][]RawDailyAuctions)}
}

// Add appends days to the raw auctions of symbol.
func (p *RawDailyPayload) Add(symbol string, days ...RawDailyAuctions) *RawDailyPayload {
	if p.days == nil {
		p.days = make(map[string][]RawDailyAuctions)
	}
	if _, ok := p.days[symbol]; !ok {
		p.symbols = append(p.symbols, symbol)
		p.days[symbol] = []RawDailyAuctions{}
	}
	p.days[symbol] = append(p.days[symbol], days...)
	return p
}

// Symbols returns the symbols in input order.
func (p *RawDailyPayload) Symbols() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.symbols...)
}

// Days returns the raw days of symbol.
func (p *RawDailyPayload) Days(symbol string) []RawDailyAuctions {
	if p == nil {
		return nil
	}
	return p.days[symbol]
}

// ParseRawPayload decodes a JSON payload. The JSON null yields a nil payload.
func ParseRawPayload(data []byte) (*RawPayload, error) {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil, nil
	}
	p := NewRawPayload()
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode auctions payload: %w", err)
	}
	return p, nil
}

// ParseRawDailyPayload decodes a JSON multi-day payload. The JSON null yields a nil payload.
func ParseRawDailyPayload(data []byte) (*RawDailyPayload, error) {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil, nil
	}
	p := NewRawDailyPayload()
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode daily auctions payload: %w", err)
	}
	return p, nil
}

// UnmarshalJSON supports json.Unmarshaler interface
func (p *RawPayload) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	p.UnmarshalEasyJSON(&r)
	return r.Error()
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler interface
func (p *RawPayload) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	p.symbols = nil
	p.auctions = make(map[string]RawSymbolAuctions)
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		symbol := in.String()
		in.WantColon()
		var a RawSymbolAuctions
		a.UnmarshalEasyJSON(in)
		p.Set(symbol, a)
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

// UnmarshalJSON supports json.Unmarshaler interface
func (p *RawDailyPayload) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	p.UnmarshalEasyJSON(&r)
	return r.Error()
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler interface
func (p *RawDailyPayload) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	p.symbols = nil
	p.days = make(map[string][]RawDailyAuctions)
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		symbol := in.String()
		in.WantColon()
		days := []RawDailyAuctions{}
		if in.IsNull() {
			in.Skip()
		} else {
			in.Delim('[')
			for !in.IsDelim(']') {
				var d RawDailyAuctions
				d.UnmarshalEasyJSON(in)
				days = append(days, d)
				in.WantComma()
			}
			in.Delim(']')
		}
		p.Add(symbol, days...)
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler interface
func (a *RawSymbolAuctions) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		switch key {
		case "c":
			a.Closing = decodeRawCategory(in)
		case "o":
			a.Opening = decodeRawCategory(in)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler interface
func (a *RawDailyAuctions) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		switch key {
		case "d":
			if in.IsNull() {
				in.Skip()
				break
			}
			date, err := civil.ParseDate(in.String())
			if err != nil {
				in.AddError(fmt.Errorf("auction date: %w", err))
			}
			a.Date = date
		case "c":
			a.Closing = decodeRawCategory(in)
		case "o":
			a.Opening = decodeRawCategory(in)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

func decodeRawCategory(in *jlexer.Lexer) RawCategory {
	if in.IsNull() {
		in.Skip()
		return nil
	}
	entries := RawCategory{}
	in.Delim('[')
	for !in.IsDelim(']') {
		entries = append(entries, decodeRawEntry(in))
		in.WantComma()
	}
	in.Delim(']')
	return entries
}

func decodeRawEntry(in *jlexer.Lexer) RawEntry {
	if in.IsNull() {
		in.Skip()
		return nil
	}
	if !in.IsDelim('{') {
		in.AddError(fmt.Errorf("auction entry: expected object"))
		return nil
	}
	entry := RawEntry{}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		entry[key] = decodeRawValue(in)
		in.WantComma()
	}
	in.Delim('}')
	return entry
}

// decodeRawValue keeps numbers as json.Number so that decimals are parsed
// from the original text.
func decodeRawValue(in *jlexer.Lexer) interface{} {
	raw := in.Raw()
	if !in.Ok() || len(raw) == 0 {
		return nil
	}
	if c := raw[0]; c == '-' || (c >= '0' && c <= '9') {
		return json.Number(raw)
	}
	sub := jlexer.Lexer{Data: raw}
	v := sub.Interface()
	if err := sub.Error(); err != nil {
		in.AddError(err)
	}
	return v
}

// DecodeRawPayloadMsgpack decodes a msgpack encoded payload. The msgpack nil yields a nil payload.
func DecodeRawPayloadMsgpack(b []byte) (*RawPayload, error) {
	d := msgpack.GetDecoder()
	defer msgpack.PutDecoder(d)
	r := bytes.NewReader(b)
	d.Reset(r)

	n, err := d.DecodeMapLen()
	if err != nil {
		return nil, fmt.Errorf("decode auctions payload: %w", err)
	}
	if n == -1 {
		return nil, checkDrained(r, "auctions payload")
	}

	p := NewRawPayload()
	for i := 0; i < n; i++ {
		symbol, err := d.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("decode auctions payload: %w", err)
		}
		a, err := decodeRawSymbolAuctionsMsgpack(d)
		if err != nil {
			return nil, fmt.Errorf("decode auctions of %s: %w", symbol, err)
		}
		p.Set(symbol, a)
	}
	if err := checkDrained(r, "auctions payload"); err != nil {
		return nil, err
	}
	return p, nil
}

// DecodeRawDailyPayloadMsgpack decodes a msgpack encoded multi-day payload
// with the same layout as the JSON one. Dates may be strings or timestamps.
func DecodeRawDailyPayloadMsgpack(b []byte) (*RawDailyPayload, error) {
	d := msgpack.GetDecoder()
	defer msgpack.PutDecoder(d)
	r := bytes.NewReader(b)
	d.Reset(r)

	n, err := d.DecodeMapLen()
	if err != nil {
		return nil, fmt.Errorf("decode daily auctions payload: %w", err)
	}
	if n == -1 {
		return nil, checkDrained(r, "daily auctions payload")
	}

	p := NewRawDailyPayload()
	for i := 0; i < n; i++ {
		symbol, err := d.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("decode daily auctions payload: %w", err)
		}
		count, err := d.DecodeArrayLen()
		if err != nil {
			return nil, fmt.Errorf("decode daily auctions of %s: %w", symbol, err)
		}
		if count == -1 {
			count = 0
		}
		days := make([]RawDailyAuctions, 0, count)
		for j := 0; j < count; j++ {
			day, err := decodeRawDailyAuctionsMsgpack(d)
			if err != nil {
				return nil, fmt.Errorf("decode daily auctions of %s: %w", symbol, err)
			}
			days = append(days, day)
		}
		p.Add(symbol, days...)
	}
	if err := checkDrained(r, "daily auctions payload"); err != nil {
		return nil, err
	}
	return p, nil
}

func checkDrained(r *bytes.Reader, what string) error {
	if r.Len() > 0 {
		return fmt.Errorf("decode %s: %d trailing bytes", what, r.Len())
	}
	return nil
}

func decodeRawDailyAuctionsMsgpack(d *msgpack.Decoder) (RawDailyAuctions, error) {
	a := RawDailyAuctions{}
	n, err := d.DecodeMapLen()
	if err != nil {
		return a, err
	}
	for i := 0; i < n; i++ {
		key, err := d.DecodeString()
		if err != nil {
			return a, err
		}
		switch key {
		case "d":
			var v interface{}
			if v, err = d.DecodeInterfaceLoose(); err != nil {
				return a, err
			}
			switch date := v.(type) {
			case nil:
			case string:
				if a.Date, err = civil.ParseDate(date); err != nil {
					return a, fmt.Errorf("auction date: %w", err)
				}
			case time.Time:
				a.Date = civil.DateOf(date.UTC())
			default:
				return a, fmt.Errorf("auction date: unexpected %T", v)
			}
		case "c":
			a.Closing, err = decodeRawCategoryMsgpack(d)
		case "o":
			a.Opening, err = decodeRawCategoryMsgpack(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return a, err
		}
	}
	return a, nil
}

func decodeRawSymbolAuctionsMsgpack(d *msgpack.Decoder) (RawSymbolAuctions, error) {
	a := RawSymbolAuctions{}
	n, err := d.DecodeMapLen()
	if err != nil {
		return a, err
	}
	for i := 0; i < n; i++ {
		key, err := d.DecodeString()
		if err != nil {
			return a, err
		}
		switch key {
		case "c":
			a.Closing, err = decodeRawCategoryMsgpack(d)
		case "o":
			a.Opening, err = decodeRawCategoryMsgpack(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return a, err
		}
	}
	return a, nil
}

func decodeRawCategoryMsgpack(d *msgpack.Decoder) (RawCategory, error) {
	n, err := d.DecodeArrayLen()
	if err != nil || n == -1 {
		return nil, err
	}
	entries := make(RawCategory, 0, n)
	for i := 0; i < n; i++ {
		entry, err := decodeRawEntryMsgpack(d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeRawEntryMsgpack(d *msgpack.Decoder) (RawEntry, error) {
	n, err := d.DecodeMapLen()
	if err != nil || n == -1 {
		return nil, err
	}
	entry := make(RawEntry, n)
	for i := 0; i < n; i++ {
		key, err := d.DecodeString()
		if err != nil {
			return nil, err
		}
		val, err := d.DecodeInterfaceLoose()
		if err != nil {
			return nil, err
		}
		entry[key] = val
	}
	return entry, nil
}
