package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp/prefork"
	"gopkg.in/yaml.v3"
)

// app struct config
type app = struct {
	Name        string        `yaml:"name"`
	Port        string        `yaml:"port"`
	PrintRoutes bool          `yaml:"print-routes"`
	Prefork     bool          `yaml:"prefork"`
	Production  bool          `yaml:"production"`
	IdleTimeout time.Duration `yaml:"idle-timeout"`
}

// db struct config
type db = struct {
	Gorm struct {
		DisableForeignKeyConstraintWhenMigrating bool `yaml:"disable-foreign-key-constraint-when-migrating"`
	}
	Postgres struct {
		DSN string `yaml:"dsn"`
	}
}

// log struct config
type logger = struct {
	TimeFormat string        `yaml:"time-format"`
	Level      zerolog.Level `yaml:"level"`
	Prettier   bool          `yaml:"prettier"`
}

// sync struct config, tunables of the migrated-token pipeline
type sync = struct {
	GraduatedURL    string        `yaml:"graduated-url"`
	MetadataURL     string        `yaml:"metadata-url"`
	DexScreenerURL  string        `yaml:"dexscreener-url"`
	MaxBatch        int           `yaml:"max-batch"`
	WatermarkBuffer time.Duration `yaml:"watermark-buffer"`
	RecordDelay     time.Duration `yaml:"record-delay"`
	Interval        time.Duration `yaml:"interval"`
	MigrationDex    string        `yaml:"migration-dex"`
}

type Config struct {
	App    app
	DB     db
	Logger logger
	Sync   sync
}

// func to parse config
func ParseConfig(file []byte) (*Config, error) {
	var (
		contents *Config
		err      error
	)
	err = yaml.Unmarshal(file, &contents)

	return contents, err
}

func ReadAndParseConfig(filename string, debug ...bool) (*Config, error) {
	var (
		file []byte
		err  error
	)

	if len(debug) > 0 {
		file, err = os.ReadFile(filename)
	} else {
		_, b, _, _ := runtime.Caller(0)
		// get base path
		path := filepath.Dir(filepath.Dir(filepath.Dir(b)))
		file, err = os.ReadFile(filepath.Join(path, "./config/", filename))
	}

	if err != nil {
		return &Config{}, err
	}

	return ParseConfig(file)
}

// initialize config
func NewConfig() *Config {
	var filename string = "default.yaml"
	config, err := ReadAndParseConfig(filename)
	if err != nil && !prefork.IsChild() {
		// panic if config is not found
		log.Panic().Err(err).Msg("'" + filename + "' not found")
	}

	return config
}

// func to parse address
func ParseAddress(raw string) (hostname, port string) {
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		return raw[:i], raw[i+1:]
	}

	return raw, ""
}
