package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/hugegraph"
	"github.com/hupe1980/hugegraph/adjacency"
	"github.com/hupe1980/hugegraph/internal/edgelist"
)

// Config holds the graph construction settings of the CLI.
//
// Values are taken from the defaults, then the YAML file given with
// --config, then HUGEGRAPH_* environment variables, then explicit flags.
type Config struct {
	Concurrency        int    `yaml:"concurrency"`
	MinBatchSize       int64  `yaml:"min_batch_size"`
	MinDegreeBatchSize int64  `yaml:"min_degree_batch_size"`
	PageBytes          int    `yaml:"page_bytes"`
	MemoryLimit        int64  `yaml:"memory_limit"`
	OffHeap            bool   `yaml:"off_heap"`
	PropertyCount      int    `yaml:"property_count"`
	Deduplicate        bool   `yaml:"deduplicate"`
	Aggregation        string `yaml:"aggregation"`
	Compression        string `yaml:"compression"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
}

// DefaultConfig returns the settings used without a config file.
func DefaultConfig() Config {
	return Config{
		Aggregation: "single",
		Compression: "auto",
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// LoadConfig reads a YAML file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with HUGEGRAPH_* variables that are set.
func (c *Config) ApplyEnv() error {
	ints := map[string]*int{
		"HUGEGRAPH_CONCURRENCY":    &c.Concurrency,
		"HUGEGRAPH_PAGE_BYTES":     &c.PageBytes,
		"HUGEGRAPH_PROPERTY_COUNT": &c.PropertyCount,
	}
	for name, dst := range ints {
		if v, ok := os.LookupEnv(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	int64s := map[string]*int64{
		"HUGEGRAPH_MIN_BATCH_SIZE":        &c.MinBatchSize,
		"HUGEGRAPH_MIN_DEGREE_BATCH_SIZE": &c.MinDegreeBatchSize,
		"HUGEGRAPH_MEMORY_LIMIT":          &c.MemoryLimit,
	}
	for name, dst := range int64s {
		if v, ok := os.LookupEnv(name); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"HUGEGRAPH_OFF_HEAP":    &c.OffHeap,
		"HUGEGRAPH_DEDUPLICATE": &c.Deduplicate,
	}
	for name, dst := range bools {
		if v, ok := os.LookupEnv(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = b
		}
	}

	strs := map[string]*string{
		"HUGEGRAPH_AGGREGATION": &c.Aggregation,
		"HUGEGRAPH_COMPRESSION": &c.Compression,
		"HUGEGRAPH_LOG_LEVEL":   &c.LogLevel,
		"HUGEGRAPH_LOG_FORMAT":  &c.LogFormat,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	return nil
}

// Options maps the config onto graph options.
func (c Config) Options() ([]hugegraph.Option, error) {
	agg, err := parseAggregation(c.Aggregation)
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	opts := []hugegraph.Option{
		hugegraph.WithConcurrency(c.Concurrency),
		hugegraph.WithMinBatchSize(c.MinBatchSize),
		hugegraph.WithMinDegreeBatchSize(c.MinDegreeBatchSize),
		hugegraph.WithPageBytes(c.PageBytes),
		hugegraph.WithMemoryLimit(c.MemoryLimit),
		hugegraph.WithOffHeapPages(c.OffHeap),
		hugegraph.WithPropertyCount(c.PropertyCount),
		hugegraph.WithLogger(logger),
	}
	if c.Deduplicate {
		aggs := make([]adjacency.Aggregation, c.PropertyCount)
		for i := range aggs {
			aggs[i] = agg
		}
		opts = append(opts,
			hugegraph.WithDuplicatePolicy(adjacency.Deduplicate),
			hugegraph.WithAggregation(aggs...),
		)
	}
	return opts, nil
}

// CompressionKind parses the configured compression.
func (c Config) CompressionKind() (edgelist.Compression, error) {
	return edgelist.ParseCompression(c.Compression)
}

// Logger builds the logger selected by LogLevel and LogFormat.
func (c Config) Logger() (*hugegraph.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return hugegraph.NewTextLogger(level), nil
	case "json":
		return hugegraph.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("%w: log format %q", hugegraph.ErrInvalidInput, c.LogFormat)
	}
}

func parseAggregation(name string) (adjacency.Aggregation, error) {
	for _, a := range []adjacency.Aggregation{adjacency.Single, adjacency.Sum, adjacency.Min, adjacency.Max} {
		if strings.EqualFold(a.String(), name) {
			return a, nil
		}
	}
	if name == "" {
		return adjacency.Single, nil
	}
	return adjacency.Single, fmt.Errorf("%w: aggregation %q", hugegraph.ErrInvalidInput, name)
}
