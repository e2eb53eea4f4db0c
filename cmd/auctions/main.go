// Command auctions normalizes an auctions payload that was already fetched
// from the market data API and writes it as JSON or Parquet.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alpacahq/alpaca-auctions-go/internal/config"
	"github.com/alpacahq/alpaca-auctions-go/marketdata"
)

func main() {
	log := newLogger(os.Stderr)
	if err := run(os.Args[1:], os.Stdin, os.Stdout, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.WithError(err).Error("auctions failed")
		os.Exit(1)
	}
}

func newLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return logger
}

type options struct {
	in, out    string
	configPath string
	envFile    string
	stats      bool
	overrides  config.Config
	set        map[string]bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("auctions", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.in, "in", "-", "Input payload file, - for stdin")
	fs.StringVar(&opts.out, "out", "-", "Output file, - for stdout")
	fs.StringVar(&opts.configPath, "config", "", "Path to YAML configuration file")
	fs.StringVar(&opts.envFile, "env", ".env", "Path to dotenv file")
	fs.BoolVar(&opts.stats, "stats", false, "Log auction statistics per symbol")
	fs.StringVar(&opts.overrides.Format, "format", "", "Output format: json or parquet")
	fs.StringVar(&opts.overrides.Encoding, "encoding", "", "Input encoding: json or msgpack")
	fs.BoolVar(&opts.overrides.Daily, "daily", false, "Input is a multi-day payload")
	fs.StringVar(&opts.overrides.Start, "start", "", "Inclusive window start, RFC 3339 or YYYY-MM-DD")
	fs.StringVar(&opts.overrides.End, "end", "", "Inclusive window end, RFC 3339 or YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// apply lays the explicitly set flags over cfg.
func (o options) apply(cfg config.Config) (config.Config, error) {
	if o.set["format"] {
		cfg.Format = o.overrides.Format
	}
	if o.set["encoding"] {
		cfg.Encoding = o.overrides.Encoding
	}
	if o.set["daily"] {
		cfg.Daily = o.overrides.Daily
	}
	if o.set["start"] {
		cfg.Start = o.overrides.Start
	}
	if o.set["end"] {
		cfg.End = o.overrides.End
	}
	return cfg, cfg.Validate()
}

func run(args []string, stdin io.Reader, stdout io.Writer, log *logrus.Logger) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}
	if cfg, err = opts.apply(cfg); err != nil {
		return err
	}
	if lvl, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	mapping, err := cfg.FieldMapping()
	if err != nil {
		return err
	}
	normalizer, err := marketdata.NewNormalizer(marketdata.NormalizerOpts{
		Mapping: mapping,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	data, err := readInput(opts.in, stdin)
	if err != nil {
		return err
	}
	set, err := normalize(normalizer, cfg, data)
	if err != nil {
		return err
	}
	start, end, err := cfg.Window()
	if err != nil {
		return err
	}
	if !start.IsZero() || !end.IsZero() {
		set = set.Window(start, end)
	}

	log.WithFields(logrus.Fields{
		"symbols":  len(set.Symbols()),
		"auctions": set.Len(),
		"format":   cfg.Format,
	}).Info("normalized auctions")
	if opts.stats {
		logStats(log, set)
	}

	return writeOutput(opts.out, stdout, func(w io.Writer) error {
		return encode(w, cfg.Format, set)
	})
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

func normalize(n *marketdata.Normalizer, cfg config.Config, data []byte) (*marketdata.AuctionSet, error) {
	msgpack := strings.EqualFold(cfg.Encoding, config.EncodingMsgpack)
	if cfg.Daily {
		var (
			payload *marketdata.RawDailyPayload
			err     error
		)
		if msgpack {
			payload, err = marketdata.DecodeRawDailyPayloadMsgpack(data)
		} else {
			payload, err = marketdata.ParseRawDailyPayload(data)
		}
		if err != nil {
			return nil, err
		}
		return n.AggregateDaily(payload)
	}

	var (
		payload *marketdata.RawPayload
		err     error
	)
	if msgpack {
		payload, err = marketdata.DecodeRawPayloadMsgpack(data)
	} else {
		payload, err = marketdata.ParseRawPayload(data)
	}
	if err != nil {
		return nil, err
	}
	return n.Aggregate(payload)
}

func encode(w io.Writer, format string, set *marketdata.AuctionSet) error {
	if strings.EqualFold(format, config.FormatParquet) {
		return set.WriteParquet(w)
	}
	b, err := set.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "-" {
		bw := bufio.NewWriter(stdout)
		if err := write(bw); err != nil {
			return err
		}
		return bw.Flush()
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func logStats(log *logrus.Logger, set *marketdata.AuctionSet) {
	for _, symbol := range set.Symbols() {
		stats := set.Stats(symbol)
		log.WithFields(logrus.Fields{
			"symbol":     symbol,
			"count":      stats.Count,
			"total_size": stats.TotalSize.String(),
			"vwap":       stats.VWAP.String(),
		}).Info("auction stats")
	}
}
