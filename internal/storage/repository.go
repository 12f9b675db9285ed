package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	tableExpenses = "expenses"
	tableIncome   = "income"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// entryRow is the shared shape of the expenses and income tables.
type entryRow struct {
	ID          int64
	Amount      decimal.Decimal
	Label       string
	Description string
	Date        core.Date
}

// SQLiteRepository is the durable ledger store.
type SQLiteRepository struct {
	db      *sql.DB
	retrier *Retrier
}

// NewSQLiteRepository opens (creating if needed) the ledger at dbPath and
// applies pending migrations. The returned handle must be closed by the caller.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection: every write is serialized through it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("Ledger database ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, retrier: NewRetrier()}, nil
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Revision returns a counter that triggers bump on every committed change to
// either table, whichever process made it.
func (r *SQLiteRepository) Revision(ctx context.Context) (int64, error) {
	var rev int64
	if err := r.db.QueryRowContext(ctx, "SELECT revision FROM ledger_revision WHERE id = 1").Scan(&rev); err != nil {
		return 0, fmt.Errorf("read ledger revision: %w", err)
	}
	return rev, nil
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	id, err := r.insert(ctx, tableExpenses, "category", entryRow{
		Amount:      e.Amount,
		Label:       e.Category,
		Description: e.Description,
		Date:        e.Date,
	})
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"amount", e.Amount.String(),
		"category", e.Category,
		"date", e.Date.String())

	return id, nil
}

func (r *SQLiteRepository) AddIncome(ctx context.Context, i core.Income) (int64, error) {
	if err := i.Validate(); err != nil {
		return 0, err
	}
	id, err := r.insert(ctx, tableIncome, "source", entryRow{
		Amount:      i.Amount,
		Label:       i.Source,
		Description: i.Description,
		Date:        i.Date,
	})
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"id", id,
		"amount", i.Amount.String(),
		"source", i.Source,
		"date", i.Date.String())

	return id, nil
}

func (r *SQLiteRepository) insert(ctx context.Context, table, labelCol string, row entryRow) (int64, error) {
	query := fmt.Sprintf("INSERT INTO %s (amount, %s, description, date) VALUES (?, ?, ?, ?)", table, labelCol)

	var id int64
	err := r.retrier.Retry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query, row.Amount.String(), row.Label, row.Description, row.Date.String())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, period *core.Period) ([]core.Expense, error) {
	rows, err := r.list(ctx, r.db, tableExpenses, "category", period)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return toExpenses(rows), nil
}

func (r *SQLiteRepository) ListIncome(ctx context.Context, period *core.Period) ([]core.Income, error) {
	rows, err := r.list(ctx, r.db, tableIncome, "source", period)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return toIncomes(rows), nil
}

// list reads a table newest first. Dates are stored as YYYY-MM-DD so the
// month filter is an inclusive range from the first to the last day.
func (r *SQLiteRepository) list(ctx context.Context, q queryer, table, labelCol string, period *core.Period) ([]entryRow, error) {
	query := fmt.Sprintf("SELECT id, amount, %s, description, date FROM %s", labelCol, table)
	var args []any
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, err
		}
		query += " WHERE date >= ? AND date <= ?"
		args = append(args, period.Start().String(), period.Last().String())
	}
	query += " ORDER BY date DESC, id DESC"

	out := make([]entryRow, 0)
	err := r.retrier.Retry(ctx, func() error {
		out = out[:0]
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				row          entryRow
				amount, date string
				description  sql.NullString
			)
			if err := rows.Scan(&row.ID, &amount, &row.Label, &description, &date); err != nil {
				return err
			}
			if row.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("row %d: parse amount %q: %w", row.ID, amount, err)
			}
			if row.Date, err = core.ParseDate(date); err != nil {
				return fmt.Errorf("row %d: parse date %q: %w", row.ID, date, err)
			}
			row.Description = description.String
			out = append(out, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	removed, err := r.delete(ctx, tableExpenses, id)
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	if removed {
		slog.InfoContext(ctx, "Expense deleted", "id", id)
	}
	return removed, nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id int64) (bool, error) {
	removed, err := r.delete(ctx, tableIncome, id)
	if err != nil {
		return false, fmt.Errorf("delete income %d: %w", id, err)
	}
	if removed {
		slog.InfoContext(ctx, "Income deleted", "id", id)
	}
	return removed, nil
}

func (r *SQLiteRepository) delete(ctx context.Context, table string, id int64) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)

	var affected int64
	err := r.retrier.Retry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected > 0, err
}

// CategorySummary sums the month's expenses per category, sorted by name.
func (r *SQLiteRepository) CategorySummary(ctx context.Context, period core.Period) ([]core.CategoryTotal, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	expenses, err := r.ListExpenses(ctx, &period)
	if err != nil {
		return nil, fmt.Errorf("category summary %s: %w", period, err)
	}
	return core.SummarizeByCategory(expenses), nil
}

// FinancialSummary reads both collections inside one transaction so the
// totals and the category breakdown describe the same snapshot.
func (r *SQLiteRepository) FinancialSummary(ctx context.Context, period core.Period) (core.FinancialSummary, error) {
	if err := period.Validate(); err != nil {
		return core.FinancialSummary{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("begin summary transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.WarnContext(ctx, "Failed to release summary transaction", "error", rbErr)
		}
	}()

	expenseRows, err := r.list(ctx, tx, tableExpenses, "category", &period)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("summary expenses %s: %w", period, err)
	}
	incomeRows, err := r.list(ctx, tx, tableIncome, "source", &period)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("summary income %s: %w", period, err)
	}

	return core.Summarize(period, toExpenses(expenseRows), toIncomes(incomeRows)), nil
}

func toExpenses(rows []entryRow) []core.Expense {
	out := make([]core.Expense, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Expense{ID: r.ID, Amount: r.Amount, Category: r.Label, Description: r.Description, Date: r.Date})
	}
	return out
}

func toIncomes(rows []entryRow) []core.Income {
	out := make([]core.Income, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Income{ID: r.ID, Amount: r.Amount, Source: r.Label, Description: r.Description, Date: r.Date})
	}
	return out
}
