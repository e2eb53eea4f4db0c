package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/alpacahq/alpaca-auctions-go/internal/config"
	"github.com/alpacahq/alpaca-auctions-go/marketdata"
)

//nolint:lll
const auctionsResp = `{"AAPL":{"c":[{"c":"M","p":185.64,"s":4183,"t":"2024-01-02T21:00:00.780244Z","x":"Q"},null],"o":[{"c":"O","p":187.15,"s":3127,"t":"2024-01-02T14:30:00.108296Z","x":"Q","z":"C"}]},"IBM":null}`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvFormat, config.EnvEncoding, config.EnvDaily,
		config.EnvStart, config.EnvEnd, config.EnvTimezone, config.EnvLogLevel} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func testRun(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	clearEnv(t)
	var stdout, logs bytes.Buffer
	args = append([]string{"-env", filepath.Join(t.TempDir(), ".env")}, args...)
	err := run(args, strings.NewReader(stdin), &stdout, newLogger(&logs))
	return stdout.String(), logs.String(), err
}

func TestRun_JSON(t *testing.T) {
	out, logs, err := testRun(t, auctionsResp)
	require.NoError(t, err)
	assert.Equal(t,
		`{"AAPL":[{"symbol":"AAPL","timestamp":"2024-01-02T21:00:00.780244Z","condition":"M","price":"185.64","size":"4183","exchange":"Q"},{"symbol":"AAPL","timestamp":"2024-01-02T14:30:00.108296Z","condition":"O","price":"187.15","size":"3127","exchange":"Q"}],"IBM":[]}`+"\n", //nolint:lll
		out)
	assert.Contains(t, logs, `"message":"normalized auctions"`)
	assert.Contains(t, logs, `"auctions":2`)
	// unknown fields are reported at info level
	assert.Contains(t, logs, "dropped unknown auction fields of AAPL: [z]")
}

func TestRun_Window(t *testing.T) {
	out, _, err := testRun(t, auctionsResp, "-start", "2024-01-02T20:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, `"condition":"M"`)
	assert.NotContains(t, out, `"condition":"O"`)
}

func TestRun_Stats(t *testing.T) {
	_, logs, err := testRun(t, auctionsResp, "-stats")
	require.NoError(t, err)
	assert.Contains(t, logs, `"message":"auction stats"`)
	assert.Contains(t, logs, `"total_size":"7310"`)
}

func TestRun_Msgpack(t *testing.T) {
	b, err := msgpack.Marshal(map[string]interface{}{
		"TSLA": map[string]interface{}{
			"o": []interface{}{
				map[string]interface{}{"c": "O", "p": 250.08, "s": 500, "t": "2024-01-02T14:30:00Z", "x": "Q"},
			},
		},
	})
	require.NoError(t, err)

	in := filepath.Join(t.TempDir(), "auctions.msgpack")
	require.NoError(t, os.WriteFile(in, b, 0o600))
	out, _, err := testRun(t, "", "-in", in, "-encoding", "msgpack")
	require.NoError(t, err)
	assert.Contains(t, out, `"TSLA":[{"symbol":"TSLA"`)
}

func TestRun_Daily(t *testing.T) {
	//nolint:lll
	daily := `{"AAPL":[{"d":"2024-01-02","c":[{"c":"M","p":185.64,"s":4183,"t":"2024-01-02T21:00:00Z","x":"Q"}]},{"d":"2024-01-03","o":[{"c":"O","p":184.22,"s":2000,"t":"2024-01-03T14:30:00Z","x":"Q"}]}]}`
	out, _, err := testRun(t, daily, "-daily")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, `"symbol":"AAPL"`))
}

func TestRun_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auctions.parquet")
	out, _, err := testRun(t, auctionsResp, "-format", "parquet", "-out", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(b) > 8)
	assert.Equal(t, "PAR1", string(b[:4]))
	assert.Equal(t, "PAR1", string(b[len(b)-4:]))
}

func TestRun_Config(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
log_level: warn
mapping:
  t: timestamp
  cond: condition
  p: price
  s: size
  x: exchange
`), 0o600))

	_, logs, err := testRun(t, `{"SPY":{"o":[{"cond":"O","p":472.16,"s":100,"t":"2024-01-02T14:30:00Z","x":"P"}]}}`, "-config", cfg)
	require.NoError(t, err)
	// info messages are filtered at warn level
	assert.NotContains(t, logs, "normalized auctions")
}

func TestRun_Errors(t *testing.T) {
	_, _, err := testRun(t, `{"AAPL":{"c":[{"c":"M","p":185.64,"t":"2024-01-02T21:00:00Z","x":"Q"}]}}`)
	var verr *marketdata.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "AAPL", verr.Symbol)
	assert.ErrorIs(t, err, marketdata.ErrMissingField)

	_, _, err = testRun(t, `{"AAPL":`)
	assert.Error(t, err)

	_, _, err = testRun(t, auctionsResp, "-format", "csv")
	assert.ErrorIs(t, err, config.ErrInvalidFormat)

	_, _, err = testRun(t, auctionsResp, "-in", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, _, err = testRun(t, auctionsResp, "extra")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	log.Info("hello")
	assert.Contains(t, buf.String(), `"message":"hello"`)
}
