package database

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

const (
	// EnginePostgres stores data in PostgreSQL.
	EnginePostgres = "postgres"
	// EngineSQLite stores data in a local SQLite file.
	EngineSQLite = "sqlite3"

	// DriverPQ selects github.com/lib/pq for PostgreSQL.
	DriverPQ = "pq"
	// DriverPGX selects the database/sql adapter of github.com/jackc/pgx.
	DriverPGX = "pgx"
	// DriverSQLite selects github.com/mattn/go-sqlite3.
	DriverSQLite = "sqlite3"
)

// Config holds database connection settings shared across bots.
// URL, when set, overrides the individual connection parts.
type Config struct {
	Engine         string `yaml:"engine" envconfig:"ENGINE"`
	Driver         string `yaml:"driver" envconfig:"DRIVER"`
	Host           string `yaml:"host" envconfig:"HOST"`
	Port           string `yaml:"port" envconfig:"PORT"`
	User           string `yaml:"user" envconfig:"USER"`
	Password       string `yaml:"password" envconfig:"PASSWORD"`
	Name           string `yaml:"name" envconfig:"NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"SSLMODE"`
	URL            string `yaml:"url" envconfig:"URL"`
	MaxConnections int    `yaml:"max_connections" envconfig:"MAX_CONNECTIONS"`
	// ConnectTimeoutSeconds bounds how long Connect keeps retrying; 0 -> 30s.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" envconfig:"CONNECT_TIMEOUT_SECONDS"`
}

// Normalize fills defaults, applies the DATABASE_URL override and rejects
// engine/driver combinations that cannot work.
func (c *Config) Normalize() error {
	if c == nil {
		return fmt.Errorf("database: nil config")
	}
	if strings.TrimSpace(c.URL) == "" {
		c.URL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if c.URL != "" {
		if err := c.applyURL(); err != nil {
			return err
		}
	}

	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Engine == "" {
		c.Engine = EnginePostgres
	}
	switch c.Engine {
	case EnginePostgres:
		if c.Driver == "" || c.Driver == "postgres" {
			c.Driver = DriverPQ
		}
		if c.Driver != DriverPQ && c.Driver != DriverPGX {
			return fmt.Errorf("database: driver %q cannot serve engine %q; allowed: pq, pgx", c.Driver, c.Engine)
		}
		if c.Host == "" {
			c.Host = "localhost"
		}
		if c.Port == "" {
			c.Port = "5432"
		}
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
	case EngineSQLite, "sqlite":
		c.Engine = EngineSQLite
		if c.Driver == "" {
			c.Driver = DriverSQLite
		}
		if c.Driver != DriverSQLite {
			return fmt.Errorf("database: driver %q cannot serve engine %q; allowed: sqlite3", c.Driver, c.Engine)
		}
		// one writer at a time keeps SQLite away from "database is locked"
		c.MaxConnections = 1
	default:
		return fmt.Errorf("database: unsupported engine %q; allowed: postgres, sqlite3", c.Engine)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("database: name is required")
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.ConnectTimeoutSeconds <= 0 {
		c.ConnectTimeoutSeconds = 30
	}
	return nil
}

func (c *Config) applyURL() error {
	raw := strings.TrimSpace(c.URL)
	if path, ok := strings.CutPrefix(raw, "sqlite3://"); ok {
		c.Engine = EngineSQLite
		c.Name = path
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("database: parse url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
	default:
		return fmt.Errorf("database: unsupported url scheme %q", u.Scheme)
	}
	c.Engine = EnginePostgres
	c.Host = u.Hostname()
	c.Port = u.Port()
	c.Name = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		c.User = u.User.Username()
		c.Password, _ = u.User.Password()
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.SSLMode = mode
	}
	return nil
}

// DriverName is the database/sql driver registered for the configured driver.
func (c Config) DriverName() string {
	switch c.Driver {
	case DriverPGX:
		return "pgx"
	case DriverSQLite:
		return "sqlite3"
	default:
		return "postgres"
	}
}

// DSN renders the connection string understood by DriverName.
func (c Config) DSN() string {
	if c.Engine == EngineSQLite {
		sep := "?"
		if strings.Contains(c.Name, "?") {
			sep = "&"
		}
		return "file:" + c.Name + sep + "_foreign_keys=on&_busy_timeout=5000"
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}
