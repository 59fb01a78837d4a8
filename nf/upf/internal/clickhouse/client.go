// Package clickhouse wraps the ClickHouse native driver behind the small
// PrepareBatch/Ping surface the UPF traffic-statistics worker needs.
package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Client is a thin wrapper over driver.Conn exposing just the batch-insert
// operation the stats worker calls.
type Client struct {
	conn driver.Conn
}

// NewClientFromDSN opens a connection pool from a clickhouse:// DSN, the form
// the UPF config carries as a single Observability.ClickHouseDSN string.
func NewClientFromDSN(dsn string) (*Client, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid clickhouse DSN: %w", err)
	}

	opts := &clickhouse.Options{
		Addr: []string{u.Host},
		Auth: clickhouse.Auth{
			Database: strings.TrimPrefix(u.Path, "/"),
		},
		DialTimeout: 5 * time.Second,
	}
	if u.User != nil {
		opts.Auth.Username = u.User.Username()
		opts.Auth.Password, _ = u.User.Password()
	}
	if u.Query().Get("tls") == "true" {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	return &Client{conn: conn}, nil
}

// PrepareBatch starts a native batch insert for a bulk-loaded statistics flush.
func (c *Client) PrepareBatch(ctx context.Context, query string) (driver.Batch, error) {
	return c.conn.PrepareBatch(ctx, query)
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.conn.Close()
}
