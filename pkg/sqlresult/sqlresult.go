// Package sqlresult reads tabular report values from EnergyPlus SQL output
// files.
package sqlresult

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrMissingQueryResult is returned when no row matches a query
var ErrMissingQueryResult = errors.New("no matching tabular result")

const selectValue = `SELECT Value FROM TabularDataWithStrings
WHERE ReportName = ? AND ReportForString = ? AND TableName = ?
AND RowName = ? AND ColumnName = ? AND Units = ?
LIMIT 1`

// Query identifies one cell of an EnergyPlus tabular report
type Query struct {
	Report    string `yaml:"report"`
	ReportFor string `yaml:"report_for"`
	Table     string `yaml:"table"`
	Row       string `yaml:"row"`
	Column    string `yaml:"column"`
	Units     string `yaml:"units"`
}

func (q Query) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s [%s]", q.Report, q.ReportFor, q.Table, q.Row, q.Column, q.Units)
}

// File is an open EnergyPlus SQL output
type File struct {
	db *sql.DB
}

// Open opens an existing SQL output file
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("sqlresult: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("sqlresult: %s is a directory", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlresult: failed to open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlresult: failed to open %s: %w", path, err)
	}
	return &File{db: db}, nil
}

// Close closes the database
func (f *File) Close() error {
	return f.db.Close()
}

// String returns the first value matching q with surrounding spaces
// removed.
func (f *File) String(ctx context.Context, q Query) (string, error) {
	var value sql.NullString
	err := f.db.QueryRowContext(ctx, selectValue,
		q.Report, q.ReportFor, q.Table, q.Row, q.Column, q.Units).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !value.Valid) {
		return "", fmt.Errorf("%w: %s", ErrMissingQueryResult, q)
	}
	if err != nil {
		return "", fmt.Errorf("sqlresult: query %s: %w", q, err)
	}
	return strings.TrimSpace(value.String), nil
}

// Double returns the first value matching q as a float
func (f *File) Double(ctx context.Context, q Query) (float64, error) {
	s, err := f.String(ctx, q)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("sqlresult: value of %s: %w", q, err)
	}
	return v, nil
}

// Int returns the first value matching q as an integer
func (f *File) Int(ctx context.Context, q Query) (int, error) {
	s, err := f.String(ctx, q)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("sqlresult: value of %s: %w", q, err)
	}
	return v, nil
}
