package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
)

// tuningConnector runs session statements on every physical connection
// the pool opens, so no connection is handed out untuned.
type tuningConnector struct {
	dsn   string
	drv   driver.Driver
	stmts []string
}

func openTuned(driverName, dsn string, stmts []string) (*sql.DB, error) {
	// sql.Open does not connect; it only resolves the registered driver.
	probe, err := sql.Open(driverName, "")
	if err != nil {
		return nil, err
	}
	drv := probe.Driver()
	probe.Close()

	return sql.OpenDB(&tuningConnector{dsn: dsn, drv: drv, stmts: stmts}), nil
}

func (c *tuningConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.apply(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *tuningConnector) Driver() driver.Driver {
	return c.drv
}

func (c *tuningConnector) open(ctx context.Context) (driver.Conn, error) {
	if dc, ok := c.drv.(driver.DriverContext); ok {
		connector, err := dc.OpenConnector(c.dsn)
		if err != nil {
			return nil, err
		}
		return connector.Connect(ctx)
	}
	return c.drv.Open(c.dsn)
}

func (c *tuningConnector) apply(ctx context.Context, conn driver.Conn) error {
	execer, ok := conn.(driver.ExecerContext)
	if !ok {
		return fmt.Errorf("driver connection %T cannot execute session statements", conn)
	}
	for _, stmt := range c.stmts {
		if _, err := execer.ExecContext(ctx, stmt, nil); err != nil {
			return fmt.Errorf("apply %q: %w", stmt, err)
		}
	}
	return nil
}
