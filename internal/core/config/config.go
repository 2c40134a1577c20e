package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type ResultStoreCfg struct {
	Addr      string
	TTL       time.Duration
	OpTimeout time.Duration
}

type SolveEventsCfg struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	QueueSize int
}

type Config struct {
	Addr                string
	LogLevel            string
	LogConsole          bool
	LogSampleN          int
	PieceTemplate       string
	TemplateScreenWidth int
	TemplateCacheSize   int
	ResultsPath         string
	ResultsDedupe       bool
	Backend             string
	MaxImageBytes       int64
	MetricsEnabled      bool
	ResultStore         ResultStoreCfg
	SolveEvents         SolveEventsCfg
}

const (
	DefaultTemplateScreenWidth = 1440
	DefaultTemplateCacheSize   = 10
	DefaultMaxImageBytes       = 16 << 20
)

func FromEnv() Config {
	return Config{
		Addr:                getenv("ADDR", "127.0.0.1:5000"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		LogConsole:          getbool("LOG_CONSOLE", false),
		LogSampleN:          getint("LOG_SAMPLE_N", 0),
		PieceTemplate:       getenv("PIECE_TEMPLATE", "piece.png"),
		TemplateScreenWidth: getint("PIECE_TEMPLATE_SCREEN_WIDTH", DefaultTemplateScreenWidth),
		TemplateCacheSize:   getint("PIECE_TEMPLATE_CACHE_SIZE", DefaultTemplateCacheSize),
		ResultsPath:         strings.TrimSpace(os.Getenv("RESULTS_PATH")),
		ResultsDedupe:       getbool("RESULTS_DEDUPE", false),
		Backend:             strings.ToLower(getenv("LOCATOR_BACKEND", "auto")),
		MaxImageBytes:       getint64("MAX_IMAGE_BYTES", DefaultMaxImageBytes),
		MetricsEnabled:      getbool("METRICS_ENABLED", true),
		ResultStore: ResultStoreCfg{
			Addr:      strings.TrimSpace(os.Getenv("RESULT_STORE_ADDR")),
			TTL:       getduration("RESULT_STORE_TTL", 10*time.Minute),
			OpTimeout: getduration("RESULT_STORE_OP_TIMEOUT", 100*time.Millisecond),
		},
		SolveEvents: SolveEventsCfg{
			Enabled:   getbool("SOLVE_EVENTS_ENABLED", false),
			Brokers:   splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:     getenv("SOLVE_EVENTS_TOPIC", "jump-solves"),
			QueueSize: getint("SOLVE_EVENTS_QUEUE", 1024),
		},
	}
}

// Validate reports settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PieceTemplate) == "" {
		errs = append(errs, errors.New("piece template path is required"))
	}
	if c.TemplateScreenWidth <= 0 {
		errs = append(errs, fmt.Errorf("piece template screen width must be positive (got %d)", c.TemplateScreenWidth))
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max image bytes must be positive (got %d)", c.MaxImageBytes))
	}
	if c.SolveEvents.Enabled && len(c.SolveEvents.Brokers) == 0 {
		errs = append(errs, errors.New("solve events enabled but no kafka brokers configured"))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

// parse "a:9092, b:9092" into a list, dropping empties
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
