package configuration

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/training-sdk/pkg/logging"
)

const Production = "production"

const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

// LoadEnv loads the env files that exist in the working directory, or, when none do,
// in the nearest parent directory holding go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		path := f
		if dir != "" {
			path = filepath.Join(dir, f)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"training"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	// Driver selects the client library: pgx or postgres (lib/pq).
	Driver   string `env:"DB_DRIVER" envDefault:"pgx"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"4"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type ImportOptions struct {
	DefaultPassword     string `env:"IMPORT_DEFAULT_PASSWORD" envDefault:"password123"`
	BcryptCost          int    `env:"IMPORT_BCRYPT_COST" envDefault:"10"`
	AliasesFile         string `env:"IMPORT_ALIASES_FILE"`
	MaxRejectionsLogged int    `env:"IMPORT_MAX_REJECTIONS_LOGGED" envDefault:"20"`
}

type Configuration struct {
	Database DatabaseOptions
	Import   ImportOptions

	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath          string `env:"LOG_PATH"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"text"`
	// MetricsTextfile, when set, receives the run's metrics in Prometheus text format.
	MetricsTextfile string `env:"METRICS_TEXTFILE"`

	logFile io.Closer
	logger  *logrus.Logger
}

// Load reads env files then the process environment. Call Unload when done.
func Load(envFiles ...string) (*Configuration, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath, c.LogFormat)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	return nil
}

func (c *Configuration) validate() error {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch driver {
	case DriverPgx, DriverPq:
	default:
		return fmt.Errorf("invalid DB_DRIVER=%q (expected pgx|postgres)", c.Database.Driver)
	}
	c.Database.Driver = driver

	format := strings.ToLower(strings.TrimSpace(c.LogFormat))
	switch format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid LOG_FORMAT=%q (expected text|json)", c.LogFormat)
	}
	c.LogFormat = format

	if c.Import.BcryptCost < 4 || c.Import.BcryptCost > 31 {
		return fmt.Errorf("invalid IMPORT_BCRYPT_COST=%d (expected 4..31)", c.Import.BcryptCost)
	}
	if c.Import.DefaultPassword == "" {
		return fmt.Errorf("IMPORT_DEFAULT_PASSWORD must not be empty")
	}
	return nil
}

// Unload closes the log file.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
