package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvDB        = "UPCYCLE_DB"
	EnvAddr      = "UPCYCLE_ADDR"
	EnvUploadDir = "UPCYCLE_UPLOAD_DIR"
	EnvLog       = "UPCYCLE_LOG"
	EnvAPIKey    = "GROQ_API_KEY"
	EnvBaseURL   = "GROQ_BASE_URL"
	EnvModel     = "GROQ_MODEL"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// DotEnv reads a .env file. A missing file yields an empty map.
func DotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vars, nil
}

// Environ looks a key up in the process environment first and falls back
// to the given .env values.
func Environ(dotenv map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// ApplyEnv overlays non-empty environment variables onto cfg.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.DBPath, EnvDB)
	set(&cfg.Addr, EnvAddr)
	set(&cfg.UploadDir, EnvUploadDir)
	set(&cfg.LogPath, EnvLog)
	set(&cfg.Chat.APIKey, EnvAPIKey)
	set(&cfg.Chat.BaseURL, EnvBaseURL)
	set(&cfg.Chat.Model, EnvModel)
}

// Parse builds the configuration from command-line arguments (without the
// program name) layered over the environment, an optional -config file and
// the defaults. It returns flag.ErrHelp when help was requested.
func Parse(args []string, lookup LookupFunc) (Config, error) {
	fs := flag.NewFlagSet("upcycle", flag.ContinueOnError)

	var configPath, dbPath, addr, uploadDir, logPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")
	fs.StringVar(&uploadDir, "uploads", "", "")
	fs.StringVar(&uploadDir, "u", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: upcycle [flags]

Flags:
  -c, -config <path>      YAML configuration file (default: none)
  -d, -db <path>          SQLite database path (default: upcycle.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -uploads <dir>      directory for uploaded images (default: uploads)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Environment (also read from .env):
  UPCYCLE_DB, UPCYCLE_ADDR, UPCYCLE_UPLOAD_DIR, UPCYCLE_LOG
  GROQ_API_KEY, GROQ_BASE_URL, GROQ_MODEL
`)
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return Config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	given := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })
	isSet := func(long, short string) bool { return given[long] || given[short] }

	cfg := Default()
	if configPath != "" {
		if err := LoadFile(configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	ApplyEnv(&cfg, lookup)

	if isSet("db", "d") {
		cfg.DBPath = dbPath
	}
	if isSet("addr", "a") {
		cfg.Addr = addr
	}
	if isSet("uploads", "u") {
		cfg.UploadDir = uploadDir
	}
	if isSet("log", "l") {
		cfg.LogPath = logPath
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
