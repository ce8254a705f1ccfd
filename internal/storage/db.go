package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// ErrReadOnlyQuery is returned by Query for anything but a single SELECT or
// WITH statement.
var ErrReadOnlyQuery = errors.New("only a single SELECT or WITH statement is allowed")

// errRollback aborts the transaction Query runs in.
var errRollback = errors.New("rollback")

type Database struct {
	db *gorm.DB
}

// Open connects to the SQLite database at dbPath and migrates the schema.
// ":memory:" gives a private in-memory database.
func Open(dbPath string, log *slog.Logger) (*Database, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.NewSlogLogger(log, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dbPath == ":memory:" {
		// Every new connection would see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Transaction{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save stores txns in one database transaction. Records whose date, amount
// and description were stored by an earlier import are skipped; repeats
// within txns are all kept.
func (d *Database) Save(ctx context.Context, txns []models.Transaction, meta ImportMeta) (*ImportResult, error) {
	res := &ImportResult{ImportID: uuid.NewString(), Total: len(txns)}
	if len(txns) == 0 {
		return res, nil
	}
	keys, err := occurrenceKeys(txns)
	if err != nil {
		return nil, err
	}

	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skipExisting := clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}
		for i, t := range txns {
			row, err := newRow(t, meta, res.ImportID, keys[i])
			if err != nil {
				return fmt.Errorf("transaction %d: %w", i+1, err)
			}
			result := tx.Clauses(skipExisting).Create(&row)
			if result.Error != nil {
				return fmt.Errorf("failed to save transaction %d: %w", i+1, result.Error)
			}
			if result.RowsAffected == 0 {
				res.Skipped++
			} else {
				res.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Count returns the number of stored transactions.
func (d *Database) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&Transaction{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// QueryResult is a generic table of query output.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Query runs a single read-only SQL statement. It executes inside a
// transaction that is always rolled back.
func (d *Database) Query(ctx context.Context, query string) (*QueryResult, error) {
	stmt, err := readOnlyStatement(query)
	if err != nil {
		return nil, err
	}

	var out *QueryResult
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := tx.Raw(stmt).Rows()
		if err != nil {
			return fmt.Errorf("error running query: %w", err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		out = &QueryResult{Columns: cols}
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return fmt.Errorf("error reading query row: %w", err)
			}
			for i, v := range vals {
				if b, ok := v.([]byte); ok {
					vals[i] = string(b)
				}
			}
			out.Rows = append(out.Rows, vals)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return errRollback
	})
	if err != nil && !errors.Is(err, errRollback) {
		return nil, err
	}
	return out, nil
}

// readOnlyStatement accepts one SELECT or WITH statement, with an optional
// trailing semicolon.
func readOnlyStatement(query string) (string, error) {
	stmt := strings.TrimSpace(query)
	stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
	if stmt == "" || strings.Contains(stmt, ";") {
		return "", ErrReadOnlyQuery
	}

	verb := strings.ToLower(strings.Fields(stmt)[0])
	if verb != "select" && verb != "with" {
		return "", fmt.Errorf("%w: got %s", ErrReadOnlyQuery, strings.ToUpper(verb))
	}
	// WITH may prefix a data-modifying statement in SQLite.
	if verb == "with" {
		for _, w := range strings.Fields(strings.ToLower(stmt)) {
			switch w {
			case "insert", "update", "delete", "replace":
				return "", fmt.Errorf("%w: WITH ... %s", ErrReadOnlyQuery, strings.ToUpper(w))
			}
		}
	}
	return stmt, nil
}
