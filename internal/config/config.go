package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"privylend-backend/internal/domain/lifecycle"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	ModeLocal = "local" // SQLite file
	ModeMySQL = "mysql"
	ModeDaml  = "daml" // remote Daml JSON API
)

type Config struct {
	AppPort string

	LedgerMode string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	SQLitePath string

	LedgerURL        string
	LedgerToken      string
	LedgerTimeout    time.Duration
	LedgerStrictTags bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdempTTLSecs        int
	SnapshotTTL         time.Duration
	SnapshotRefreshSpec string

	LogLevel     string
	LogFormat    string
	GormLogLevel string

	RateLimitRPS float64

	// Seed loads the default dataset for SeedParty into an empty store.
	Seed      bool
	SeedParty string

	ProtocolFile string
	Protocol     lifecycle.Params
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func getbool(k string, d bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return b
	}
	return d
}

func getduration(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return v
	}
	return d
}

// Load reads the environment, after merging any of envFiles that exist, and
// the optional protocol YAML named by PROTOCOL_FILE.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := &Config{
		AppPort:    getenv("APP_PORT", "8080"),
		LedgerMode: strings.ToLower(getenv("LEDGER_MODE", ModeLocal)),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "privylend"),
		MySQLUser: getenv("MYSQL_USER", "privylend"),
		MySQLPass: getenv("MYSQL_PASS", "privylend"),

		SQLitePath: getenv("SQLITE_PATH", "privylend.db"),

		LedgerURL:        getenv("LEDGER_URL", "http://localhost:7575"),
		LedgerToken:      os.Getenv("LEDGER_TOKEN"),
		LedgerTimeout:    getduration("LEDGER_TIMEOUT", 10*time.Second),
		LedgerStrictTags: getbool("LEDGER_STRICT_TAGS", false),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),

		IdempTTLSecs:        getint("IDEMPOTENCY_TTL_SECONDS", 300),
		SnapshotTTL:         getduration("SNAPSHOT_TTL", 24*time.Hour),
		SnapshotRefreshSpec: getenv("SNAPSHOT_REFRESH_SPEC", "@every 1m"),

		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "json"),
		GormLogLevel: getenv("GORM_LOG_LEVEL", "warn"),

		Seed:      getbool("SEED", false),
		SeedParty: getenv("SEED_PARTY", "Alice"),

		ProtocolFile: os.Getenv("PROTOCOL_FILE"),
		Protocol:     lifecycle.DefaultParams(),
	}
	if v, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64); err == nil {
		c.RateLimitRPS = v
	} else {
		c.RateLimitRPS = 20
	}

	if c.ProtocolFile != "" {
		p, err := LoadProtocol(c.ProtocolFile)
		if err != nil {
			return nil, err
		}
		c.Protocol = p
	}
	return c, nil
}

// LoadProtocol overlays the YAML file at path on the default protocol params.
// A file that sets ltv_ratio without ltv_ceiling_pct gets the matching ceiling.
func LoadProtocol(path string) (lifecycle.Params, error) {
	p := lifecycle.DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read protocol file: %w", err)
	}
	p.LTVCeilingPct = decimal.Zero
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse protocol file: %w", err)
	}
	if p.LTVCeilingPct.IsZero() {
		p.LTVCeilingPct = p.LTVRatio.Mul(hundred)
	}
	return p, nil
}

var hundred = decimal.NewFromInt(100)

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.LedgerMode {
	case ModeLocal:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH for local ledger mode")
		}
	case ModeMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case ModeDaml:
		u, err := url.Parse(c.LedgerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid LEDGER_URL %q", c.LedgerURL)
		}
	default:
		return fmt.Errorf("unknown LEDGER_MODE %q (want local, mysql or daml)", c.LedgerMode)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	return c.validateProtocol()
}

func (c *Config) validateProtocol() error {
	p := c.Protocol
	switch {
	case !p.LTVRatio.IsPositive() || p.LTVRatio.GreaterThan(decimal.NewFromInt(1)):
		return fmt.Errorf("protocol: ltv_ratio %s must be in (0, 1]", p.LTVRatio)
	case !p.LTVCeilingPct.Equal(p.LTVRatio.Mul(hundred)):
		return fmt.Errorf("protocol: ltv_ceiling_pct %s must equal ltv_ratio %s as a percentage", p.LTVCeilingPct, p.LTVRatio)
	case p.MinDeposit.IsNegative():
		return fmt.Errorf("protocol: min_deposit %s must not be negative", p.MinDeposit)
	case p.DueSoonThresholdDays < 0:
		return fmt.Errorf("protocol: due_soon_threshold_days %d must not be negative", p.DueSoonThresholdDays)
	case p.DefaultInterestRatePct.IsNegative():
		return fmt.Errorf("protocol: default_interest_rate_pct %s must not be negative", p.DefaultInterestRatePct)
	}
	for _, d := range p.TermPresets {
		if d <= 0 {
			return fmt.Errorf("protocol: term preset %d must be positive", d)
		}
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATE/DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
