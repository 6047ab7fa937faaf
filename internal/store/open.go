package store

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// Store is a cache store that can be pruned and closed.
type Store interface {
	weather.CacheStore
	weather.Pruner
	Close() error
}

// Open returns the cache store described by dsn:
//
//	"" or "memory"          in-process cache
//	"sqlite://<path>"       SQLite file (a bare path is also treated as SQLite)
//	"postgres://..."        PostgreSQL via GORM
//	"mysql://..."           MySQL via GORM
func Open(ctx context.Context, dsn string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "" || dsn == "memory" || dsn == "memory://":
		return NewMemoryStore(DefaultMemoryRetention), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLite(strings.TrimPrefix(dsn, "sqlite://"), logger)
	case !strings.Contains(dsn, "://"):
		return NewSQLite(dsn, logger)
	}

	db, err := openDatabase(dsn)
	if err != nil {
		return nil, err
	}

	s := NewGormStore(db, logger)
	if err := s.AutoMigrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate cache table: %w", err)
	}
	return s, nil
}

func openDatabase(databaseURL string) (*gorm.DB, error) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	switch strings.ToLower(parsed.Scheme) {
	case "mysql":
		dsn, err := buildMySQLDSN(parsed)
		if err != nil {
			return nil, err
		}
		return gorm.Open(mysql.Open(dsn), cfg)
	case "postgres", "postgresql":
		return gorm.Open(postgres.Open(databaseURL), cfg)
	default:
		return nil, fmt.Errorf("unsupported cache scheme %q", parsed.Scheme)
	}
}

func buildMySQLDSN(parsed *url.URL) (string, error) {
	username := ""
	password := ""
	if parsed.User != nil {
		username = parsed.User.Username()
		if pwd, ok := parsed.User.Password(); ok {
			password = pwd
		}
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return "", fmt.Errorf("database url missing hostname for mysql connection")
	}

	port := parsed.Port()
	if port == "" {
		port = "3306"
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", fmt.Errorf("database url missing database name for mysql connection")
	}

	query := parsed.Query()
	if _, present := query["parseTime"]; !present {
		query.Set("parseTime", "true")
	}
	if _, present := query["charset"]; !present {
		query.Set("charset", "utf8mb4")
	}

	auth := ""
	if username != "" {
		auth = username
		if password != "" {
			auth = fmt.Sprintf("%s:%s", auth, password)
		}
		auth += "@"
	} else if password != "" {
		return "", fmt.Errorf("database url provides password without username for mysql connection")
	}

	address := net.JoinHostPort(hostname, port)
	return fmt.Sprintf("%stcp(%s)/%s?%s", auth, address, databaseName, query.Encode()), nil
}
