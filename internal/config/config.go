package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database for minimal containers

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Report sink names accepted in REPORT_SINKS.
const (
	SinkLog    = "log"
	SinkSheets = "sheets"
	SinkKafka  = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	CatalogPath     string
	CatalogEncoding string
	CatalogColumns  CatalogColumns

	Timezone *time.Location

	CEHQBaseURL         string
	VigilanceBaseURL    string
	CEHQAnchorHour      int
	VigilanceAnchorHour int
	RowDelay            time.Duration
	HTTPTimeout         time.Duration

	// Provider response cache; a zero TTL disables it.
	ProviderCacheSize int
	ProviderCacheTTL  time.Duration

	ReportSinks []string

	// Google Sheets publishing.
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	SheetsFolderID        string

	// Kafka publishing.
	KafkaBrokers     []string
	KafkaReportTopic string

	RunSchedule     string
	RunOnStart      bool
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// CatalogColumns are the 0-based catalog column positions the pipeline reads.
type CatalogColumns struct {
	CEHQStation      int
	VigilanceStation int
	ThresholdMin     int
	ThresholdMax     int
}

// CatalogConfig holds the CATALOG_* settings needed to read the river catalog.
type CatalogConfig struct {
	Path     string
	Encoding string
	Columns  CatalogColumns
}

// LoadCatalog reads only the catalog settings, so offline tools do not need
// provider, sink or server configuration.
func LoadCatalog() (*CatalogConfig, error) {
	columns, err := parseCatalogColumns()
	if err != nil {
		return nil, err
	}
	c := &CatalogConfig{
		Path:     sharedcfg.EnvOrDefault("CATALOG_PATH", "rivers.csv"),
		Encoding: strings.ToLower(sharedcfg.EnvOrDefault("CATALOG_ENCODING", "iso-8859-1")),
		Columns:  columns,
	}
	if c.Path == "" {
		return nil, errors.New("CATALOG_PATH is required")
	}
	switch c.Encoding {
	case "iso-8859-1", "latin1", "utf-8", "utf8":
	default:
		return nil, fmt.Errorf("unsupported CATALOG_ENCODING %q", c.Encoding)
	}
	return c, nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	zoneName := sharedcfg.EnvOrDefault("TIMEZONE", "America/Montreal")
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", zoneName, err)
	}

	rowDelay, err := parseDuration("ROW_DELAY", "500ms", true)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "30s", false)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseInt("PROVIDER_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	if cacheSize < 0 {
		return nil, errors.New("invalid PROVIDER_CACHE_SIZE: must be >= 0")
	}
	cacheTTL, err := parseDuration("PROVIDER_CACHE_TTL", "10m", true)
	if err != nil {
		return nil, err
	}

	cehqAnchor, err := parseHour("CEHQ_ANCHOR_HOUR", 9)
	if err != nil {
		return nil, err
	}
	vigilanceAnchor, err := parseHour("VIGILANCE_ANCHOR_HOUR", 7)
	if err != nil {
		return nil, err
	}

	runOnStart, err := strconv.ParseBool(sharedcfg.EnvOrDefault("RUN_ON_START", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_ON_START: %w", err)
	}

	cfg := &Config{
		CatalogPath:     catalog.Path,
		CatalogEncoding: catalog.Encoding,
		CatalogColumns:  catalog.Columns,

		Timezone: loc,

		CEHQBaseURL:         sharedcfg.EnvOrDefault("CEHQ_BASE_URL", "https://www.cehq.gouv.qc.ca/depot/suivihydro/bd/JSON"),
		VigilanceBaseURL:    sharedcfg.EnvOrDefault("VIGILANCE_BASE_URL", "https://inedit-ro.geo.msp.gouv.qc.ca/station_details_readings_api?id=eq."),
		CEHQAnchorHour:      cehqAnchor,
		VigilanceAnchorHour: vigilanceAnchor,
		RowDelay:            rowDelay,
		HTTPTimeout:         httpTimeout,

		ProviderCacheSize: cacheSize,
		ProviderCacheTTL:  cacheTTL,

		ReportSinks: parseList(sharedcfg.EnvOrDefault("REPORT_SINKS", SinkLog)),

		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleCredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		SheetsFolderID:        os.Getenv("SHEETS_FOLDER_ID"),

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "river-flow-reports"),

		RunSchedule:     strings.TrimSpace(os.Getenv("RUN_SCHEDULE")),
		RunOnStart:      runOnStart,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasSink reports whether name is among the configured report sinks.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.ReportSinks {
		if s == name {
			return true
		}
	}
	return false
}

func (c *Config) validate() error {
	if c.CEHQBaseURL == "" {
		return errors.New("CEHQ_BASE_URL is required")
	}
	if c.VigilanceBaseURL == "" {
		return errors.New("VIGILANCE_BASE_URL is required")
	}
	if len(c.ReportSinks) == 0 {
		return errors.New("REPORT_SINKS is required")
	}
	for _, s := range c.ReportSinks {
		switch s {
		case SinkLog, SinkSheets, SinkKafka:
		default:
			return fmt.Errorf("unknown report sink %q in REPORT_SINKS", s)
		}
	}
	if c.HasSink(SinkSheets) {
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			return errors.New("sheets sink requires GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON")
		}
		if c.SheetsFolderID == "" {
			return errors.New("sheets sink requires SHEETS_FOLDER_ID")
		}
	}
	if c.HasSink(SinkKafka) {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka sink")
		}
		if c.KafkaReportTopic == "" {
			return errors.New("KAFKA_REPORT_TOPIC is required for the kafka sink")
		}
	}
	return nil
}

func parseCatalogColumns() (CatalogColumns, error) {
	var cols CatalogColumns
	fields := []struct {
		key string
		def int
		dst *int
	}{
		{"CATALOG_CEHQ_COLUMN", 7, &cols.CEHQStation},
		{"CATALOG_VIGILANCE_COLUMN", 9, &cols.VigilanceStation},
		{"CATALOG_THRESHOLD_MIN_COLUMN", 10, &cols.ThresholdMin},
		{"CATALOG_THRESHOLD_MAX_COLUMN", 11, &cols.ThresholdMax},
	}
	for _, f := range fields {
		n, err := parseInt(f.key, f.def)
		if err != nil {
			return cols, err
		}
		if n < 0 {
			return cols, fmt.Errorf("invalid %s: must be >= 0", f.key)
		}
		*f.dst = n
	}
	return cols, nil
}

func parseHour(key string, def int) (int, error) {
	n, err := parseInt(key, def)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 23 {
		return 0, fmt.Errorf("invalid %s: must be between 0 and 23", key)
	}
	return n, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
