package marketdata

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/mailru/easyjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
)

func TestAuctionSetMarshalJSON(t *testing.T) {
	payload := NewRawPayload().
		Set("SPY", RawSymbolAuctions{Opening: RawCategory{
			{"c": "O", "p": 472.16, "s": 100.0, "t": "2024-01-02T14:30:00.5Z", "x": "P", "z": "B"},
		}}).
		Set("AAPL", RawSymbolAuctions{})
	set, err := NewAuctionSet(payload)
	require.NoError(t, err)

	got, err := json.Marshal(set)
	require.NoError(t, err)
	assert.Equal(t,
		`{"SPY":[{"symbol":"SPY","timestamp":"2024-01-02T14:30:00.5Z","condition":"O","price":"472.16","size":"100","exchange":"P"}],"AAPL":[]}`, //nolint:lll
		string(got))

	viaEasyJSON, err := easyjson.Marshal(set)
	require.NoError(t, err)
	assert.Equal(t, got, viaEasyJSON)

	empty, err := NewAuctionSet(nil)
	require.NoError(t, err)
	got, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestWriteParquet(t *testing.T) {
	set := testSet(t)

	var buf bytes.Buffer
	require.NoError(t, set.WriteParquet(&buf))
	require.NotZero(t, buf.Len())

	pf, err := buffer.NewBufferFile(buf.Bytes())
	require.NoError(t, err)
	pr, err := reader.NewParquetReader(pf, new(auctionRecord), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	require.Equal(t, set.Len(), n)
	rows := make([]auctionRecord, n)
	require.NoError(t, pr.Read(&rows))

	records := set.Records()
	for i, row := range rows {
		assert.Equal(t, records[i].Symbol, row.Symbol)
		assert.Equal(t, records[i].Timestamp.UnixNano(), row.TimestampNs)
		assert.Equal(t, records[i].Condition, row.Condition)
		assert.Equal(t, records[i].Price.InexactFloat64(), row.Price)
		assert.Equal(t, records[i].Size.InexactFloat64(), row.Size)
		assert.Equal(t, records[i].Exchange, row.Exchange)
	}
}

func TestMarshalJSON_SameForEveryEncoding(t *testing.T) {
	fromJSON, err := ParseRawPayload([]byte(`{"TSLA":{"c":[{"c":"M","p":248.42,"s":500,"t":"2024-01-02T21:00:00.780244Z","x":"Q"}]}}`)) //nolint:lll
	require.NoError(t, err)

	est := time.FixedZone("EST", -5*3600)
	b, err := msgpack.Marshal(map[string]interface{}{
		"TSLA": map[string]interface{}{
			"c": []interface{}{
				map[string]interface{}{
					"c": "M",
					"p": 248.42,
					"s": 500,
					"t": time.Date(2024, 1, 2, 16, 0, 0, 780244000, est),
					"x": "Q",
				},
			},
		},
	})
	require.NoError(t, err)
	fromMsgpack, err := DecodeRawPayloadMsgpack(b)
	require.NoError(t, err)

	jsonSet, err := NewAuctionSet(fromJSON)
	require.NoError(t, err)
	msgpackSet, err := NewAuctionSet(fromMsgpack)
	require.NoError(t, err)

	want, err := jsonSet.MarshalJSON()
	require.NoError(t, err)
	got, err := msgpackSet.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
	assert.Contains(t, string(got), `"timestamp":"2024-01-02T21:00:00.780244Z"`)
}
