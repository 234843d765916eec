package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/formharvest/internal/extract"
	"github.com/a3tai/formharvest/internal/glyph"
)

const (
	// Mode constants
	ModeOnce  = "once"
	ModeWatch = "watch"
	ModeMCP   = "mcp"

	// Default values
	DefaultConfigFile   = "config.json"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultPollInterval = 5 * time.Second
	DefaultStableDelay  = time.Second
	DefaultResultDir    = "results"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "FORMHARVEST"
)

// DefaultPatterns are the document name globs picked up from the source folder
var DefaultPatterns = []string{"*.docx", "*.pdf"}

// SymbolConfig carries the glyph substitution tables and choice markers.
// It is loaded once and never modified.
type SymbolConfig struct {
	Tables  glyph.Tables
	Markers extract.Markers
}

// Config holds all configuration for a harvesting run
type Config struct {
	// Runtime configuration
	Mode         string // "once", "watch" or "mcp"
	ConfigFile   string
	PollInterval time.Duration
	StableDelay  time.Duration
	LogLevel     string
	LogJSON      bool
	MaxFileSize  int64 // Maximum document size in bytes
	ResultDir    string

	// Form configuration, read from the config file
	SourceFolder string
	BackupFolder string
	ExcelPath    string
	Keywords     []string
	Patterns     []string
	Symbols      SymbolConfig

	// Application configuration
	Version    string
	ServerName string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:         ModeOnce,
		ConfigFile:   DefaultConfigFile,
		PollInterval: DefaultPollInterval,
		StableDelay:  DefaultStableDelay,
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
		ResultDir:    DefaultResultDir,
		Patterns:     append([]string(nil), DefaultPatterns...),
		Symbols: SymbolConfig{
			Markers: extract.DefaultMarkers(),
		},
		Version:    "1.0.0",
		ServerName: "formharvest",
	}
}

// LoadFromFlags parses command line flags, reads the config file and
// returns a validated configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	cfg.ConfigFile = viper.GetString("config")
	if err := readConfigFile(cfg.ConfigFile); err != nil {
		return nil, err
	}

	populateConfigFromViper(cfg)

	symbols, err := LoadSymbolConfig(cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("invalid symbol configuration: %w", err)
	}
	cfg.Symbols = symbols

	cfg.expandPaths()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("config", cfg.ConfigFile)
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("interval", cfg.PollInterval)
	viper.SetDefault("stable-delay", cfg.StableDelay)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("logjson", cfg.LogJSON)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("result-dir", cfg.ResultDir)
	viper.SetDefault("patterns", cfg.Patterns)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("config", cfg.ConfigFile, "Path to the JSON or YAML configuration file")
	pflag.String("mode", cfg.Mode, "Run mode: 'once' processes the folder and exits, "+
		"'watch' keeps watching, 'mcp' watches and serves MCP tools on stdio")
	pflag.Duration("interval", cfg.PollInterval, "Folder poll interval (watch and mcp modes)")
	pflag.Duration("stable-delay", cfg.StableDelay, "Time a document's size must stay unchanged before it is read")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Bool("logjson", cfg.LogJSON, "Emit logs as JSON")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document size in bytes")
	pflag.String("result-dir", cfg.ResultDir, "Directory the output table is written to")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"config", "mode", "interval", "stable-delay", "loglevel", "logjson", "maxfilesize", "result-dir",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nformharvest - collect checkbox form answers from documents into a table\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # process the source folder once\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config=forms.yaml --mode=watch # keep watching for new documents\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=mcp                       # watch and expose MCP tools\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FORMHARVEST_CONFIG        Config file path\n")
		fmt.Fprintf(os.Stderr, "  FORMHARVEST_MODE          Run mode\n")
		fmt.Fprintf(os.Stderr, "  FORMHARVEST_INTERVAL      Poll interval\n")
		fmt.Fprintf(os.Stderr, "  FORMHARVEST_STABLE_DELAY  Size stability delay\n")
		fmt.Fprintf(os.Stderr, "  FORMHARVEST_LOGLEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  FORMHARVEST_MAXFILESIZE   Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  FORMHARVEST_RESULT_DIR    Output directory\n")
	}
}

// readConfigFile loads the form configuration file into viper
func readConfigFile(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.PollInterval = viper.GetDuration("interval")
	cfg.StableDelay = viper.GetDuration("stable-delay")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.LogJSON = viper.GetBool("logjson")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.ResultDir = viper.GetString("result-dir")

	cfg.SourceFolder = viper.GetString("source_folder")
	cfg.BackupFolder = viper.GetString("backup_folder")
	cfg.ExcelPath = viper.GetString("excel_path")
	cfg.Keywords = viper.GetStringSlice("keywords")
	cfg.Patterns = viper.GetStringSlice("patterns")
}

// expandPaths resolves folders relative to the working directory
func (c *Config) expandPaths() {
	for _, p := range []*string{&c.SourceFolder, &c.BackupFolder, &c.ResultDir} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}
}

// Validate checks if the configuration is valid. The source folder and the
// result directory are created when missing.
func (c *Config) Validate() error {
	if c.Mode != ModeOnce && c.Mode != ModeWatch && c.Mode != ModeMCP {
		return errors.New("mode must be one of 'once', 'watch' or 'mcp'")
	}

	if len(c.Keywords) == 0 {
		return errors.New("keywords cannot be empty")
	}
	for i, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keyword %d is blank", i+1)
		}
	}

	if c.SourceFolder == "" {
		return errors.New("source folder cannot be empty")
	}
	if c.BackupFolder == "" {
		return errors.New("backup folder cannot be empty")
	}
	if filepath.Clean(c.SourceFolder) == filepath.Clean(c.BackupFolder) {
		return errors.New("backup folder must differ from the source folder")
	}
	if err := ensureDir(c.SourceFolder); err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(c.ExcelPath)) {
	case ".csv", ".xlsx":
	default:
		return fmt.Errorf("output path must end in .csv or .xlsx: %q", c.ExcelPath)
	}
	if c.ResultDir != "" {
		if err := ensureDir(c.ResultDir); err != nil {
			return err
		}
	}

	if len(c.Patterns) == 0 {
		return errors.New("at least one document pattern is required")
	}

	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.StableDelay < 0 {
		return errors.New("stable delay cannot be negative")
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if len(c.Symbols.Markers.Ticks) == 0 {
		return errors.New("at least one tick symbol is required")
	}
	for _, r := range c.Symbols.Markers.Ticks {
		if r == c.Symbols.Markers.EmptyBox {
			return fmt.Errorf("symbol %q cannot be both a tick and the empty box", r)
		}
	}

	return nil
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", dir, err)
	}
	return nil
}

// OutputPath is where the table is written: the base name of the configured
// excel_path inside the result directory
func (c *Config) OutputPath() string {
	if c.ResultDir == "" {
		return c.ExcelPath
	}
	return filepath.Join(c.ResultDir, filepath.Base(c.ExcelPath))
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsMCPMode returns true if MCP tools are served on stdio
func (c *Config) IsMCPMode() bool {
	return c.Mode == ModeMCP
}

// IsWatching returns true if the run keeps watching the source folder
func (c *Config) IsWatching() bool {
	return c.Mode == ModeWatch || c.Mode == ModeMCP
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Source: %s, Backup: %s, Output: %s, Keywords: %d, "+
		"Glyphs: %d, Ticks: %q, EmptyBox: %q, LogLevel: %s, Interval: %s}",
		c.Mode, c.SourceFolder, c.BackupFolder, c.OutputPath(), len(c.Keywords),
		c.Symbols.Tables.Len(), string(c.Symbols.Markers.Ticks), string(c.Symbols.Markers.EmptyBox),
		c.LogLevel, c.PollInterval)
}
