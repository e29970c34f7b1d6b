// Package primarydb connects to the primary MySQL datastore that solvers read
// from and macro-transaction scripts run against.
package primarydb

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"goggles/internal/config"
	"goggles/internal/services"
)

// Options tunes a connection beyond what config carries.
type Options struct {
	// MultiStatements lets one Exec run a whole script.
	MultiStatements bool
}

// DriverConfig builds the go-sql-driver configuration for cfg.
func DriverConfig(cfg *config.Config, opts Options) *mysql.Config {
	dc := mysql.NewConfig()
	dc.User = cfg.Database.User
	dc.Passwd = cfg.Database.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port))
	dc.DBName = cfg.Database.Name
	dc.ParseTime = true
	dc.Timeout = 10 * time.Second
	dc.MultiStatements = opts.MultiStatements
	return dc
}

// DSN returns the data source name for cfg.
func DSN(cfg *config.Config, opts Options) string {
	return DriverConfig(cfg, opts).FormatDSN()
}

// Connect returns a pooled handle without touching the network. Connection
// errors surface on first use.
func Connect(cfg *config.Config, opts Options) (*sql.DB, error) {
	connector, err := mysql.NewConnector(DriverConfig(cfg, opts))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "primarydb", "connect", "build connector", err)
	}
	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxIdleConns(2)
	return db, nil
}

// Open returns a pooled handle and verifies connectivity.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*sql.DB, error) {
	db, err := Connect(cfg, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrTransient, "primarydb", "ping", fmt.Sprintf("%s@%s", cfg.Database.Name, cfg.Database.Host), err)
	}
	return db, nil
}
