package database

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/logging"
)

// DefaultDriver is the database/sql driver used when none is configured.
const DefaultDriver = "sqlite"

// Config selects the database a statement runs against.
type Config struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// ResultSet is the outcome of one statement. Rows are only filled for
// statements that return rows.
type ResultSet struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
}

// Connector runs statements, opening and closing a pool per call.
type Connector struct {
	logger logging.Logger
}

// NewConnector creates a Connector.
func NewConnector(logger logging.Logger) *Connector {
	return &Connector{logger: logger.WithComponent("database")}
}

// InsertSQL runs query against the database described by cfg.
func (c *Connector) InsertSQL(ctx context.Context, cfg Config, query string) (*ResultSet, error) {
	const op = "database.InsertSQL"

	if strings.TrimSpace(query) == "" {
		return nil, errors.NewValidationError(op, errors.ErrCodeInvalidArgument, "query is empty")
	}
	if cfg.DSN == "" {
		return nil, errors.NewValidationError(op, errors.ErrCodeInvalidArgument, "dsn is empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = DefaultDriver
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, c.fail(ctx, errors.NewConfigError(op, errors.ErrCodeConfigInvalid, "open database").WithInfo(err.Error()))
	}
	defer func() {
		_ = db.Close()
	}()

	var result *ResultSet
	if returnsRows(query) {
		result, err = queryRows(ctx, db, query)
	} else {
		result, err = exec(ctx, db, query)
	}
	if err != nil {
		return nil, c.fail(ctx, errors.Wrap(err, errors.ErrorTypeIO, op, errors.ErrCodeQuery, "query failed"))
	}

	c.logger.Success(ctx, "Query finished", "rows", len(result.Rows), "affected", result.RowsAffected)
	return result, nil
}

func (c *Connector) fail(ctx context.Context, err error) error {
	c.logger.Error(ctx, err, "Query rejected")
	return err
}

// returnsRows guesses from the leading keyword whether query yields rows.
func returnsRows(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "PRAGMA", "VALUES", "EXPLAIN":
		return true
	}
	return strings.Contains(strings.ToUpper(query), " RETURNING ")
}

func exec(ctx context.Context, db *sql.DB, query string) (*ResultSet, error) {
	res, err := db.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return &ResultSet{RowsAffected: affected}, nil
}

func queryRows(ctx context.Context, db *sql.DB, query string) (*ResultSet, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result.RowsAffected = int64(len(result.Rows))
	return result, nil
}
