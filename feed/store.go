package feed

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/evdnx/gosig/types"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Dialect names the database/sql driver behind a Store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Symbol is one row of the symbols table.
type Symbol struct {
	ID              int64
	Symbol          string
	Description     string
	SecurityType    string
	ListingExchange string
	IsQuotable      bool
	IsTradable      bool
	Currency        string
}

// Store reads and writes the symbols/candles schema.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// OpenStore connects with the driver registered for dialect.
func OpenStore(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	switch dialect {
	case SQLite, Postgres:
	default:
		return nil, errors.Errorf("unsupported dialect %q", dialect)
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dialect)
	}
	if dialect == SQLite {
		// a single connection keeps :memory: databases alive and serialises writers
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s", dialect)
	}
	return &Store{db: db, dialect: dialect}, nil
}

// NewStore wraps an already open handle.
func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) Close() error { return s.db.Close() }

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// schema returns the DDL for the store's dialect. Postgres keeps prices as
// NUMERIC so they round-trip exactly; sqlite stores them as REAL.
func (s *Store) schema() []string {
	candleID, price := "id INTEGER PRIMARY KEY", "REAL"
	if s.dialect == Postgres {
		candleID, price = "id BIGSERIAL PRIMARY KEY", "NUMERIC"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS symbols (
			id BIGINT PRIMARY KEY,
			symbol TEXT NOT NULL,
			description TEXT NOT NULL,
			securityType TEXT NOT NULL,
			listingExchange TEXT NOT NULL,
			isQuotable TEXT NOT NULL,
			isTradable TEXT NOT NULL,
			currency TEXT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS candles (
			%[1]s,
			start TEXT NOT NULL,
			"end" TEXT NOT NULL,
			open %[2]s NOT NULL,
			high %[2]s NOT NULL,
			low %[2]s NOT NULL,
			close %[2]s NOT NULL,
			volume BIGINT NOT NULL,
			symbol_id BIGINT NOT NULL REFERENCES symbols (id)
		)`, candleID, price),
		`CREATE INDEX IF NOT EXISTS candles_symbol_start ON candles (symbol_id, start)`,
	}
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, q := range s.schema() {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}
	return nil
}

func (s *Store) InsertSymbol(ctx context.Context, sym Symbol) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO symbols
		(id, symbol, description, securityType, listingExchange, isQuotable, isTradable, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		sym.ID, sym.Symbol, sym.Description, sym.SecurityType, sym.ListingExchange,
		strconv.FormatBool(sym.IsQuotable), strconv.FormatBool(sym.IsTradable), sym.Currency)
	return errors.Wrapf(err, "insert symbol %s", sym.Symbol)
}

// InsertCandles stores daily bars for symbolID in one transaction. Each
// candle spans one day from the bar's timestamp.
func (s *Store) InsertCandles(ctx context.Context, symbolID int64, bars []types.Bar) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO candles
		(start, "end", open, high, low, close, volume, symbol_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return errors.Wrap(err, "prepare insert candle")
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err = stmt.ExecContext(ctx,
			b.Time.Format(time.RFC3339Nano),
			b.Time.AddDate(0, 0, 1).Format(time.RFC3339Nano),
			b.Open, b.High, b.Low, b.Close,
			b.Volume, symbolID,
		); err != nil {
			return errors.Wrapf(err, "insert candle %s", b.Time.Format(time.RFC3339))
		}
	}
	return errors.Wrap(tx.Commit(), "commit candles")
}

// Candles returns the bars stored for symbol ordered by start time.
func (s *Store) Candles(ctx context.Context, symbol string) ([]types.Bar, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT c.start, c.open, c.high, c.low, c.close, c.volume
		FROM candles c JOIN symbols s ON s.id = c.symbol_id
		WHERE s.symbol = ?
		ORDER BY c.start`), symbol)
	if err != nil {
		return nil, errors.Wrapf(err, "query candles %s", symbol)
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var (
			start      string
			o, h, l, c decimal.Decimal
			volume     int64
		)
		if err := rows.Scan(&start, &o, &h, &l, &c, &volume); err != nil {
			return nil, errors.Wrapf(err, "scan candle %s", symbol)
		}
		at, err := parseTime(start)
		if err != nil {
			return nil, errors.Wrapf(err, "candle %s", symbol)
		}
		bars = append(bars, types.Bar{
			Ticker: symbol,
			Time:   at,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: volume,
		})
	}
	return bars, errors.Wrapf(rows.Err(), "iterate candles %s", symbol)
}

// LastDate returns the most recent candle start stored for symbol.
func (s *Store) LastDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	var last sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT MAX(c.start)
		FROM candles c JOIN symbols s ON s.id = c.symbol_id
		WHERE s.symbol = ?`), symbol).Scan(&last)
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "last date %s", symbol)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	at, err := parseTime(last.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// SQLFeed replays bars loaded from a Store.
type SQLFeed struct {
	*SliceFeed
	store *Store
}

// NewSQLFeed loads every ticker up front. Closing the feed closes the store.
func NewSQLFeed(ctx context.Context, store *Store, tickers []string, w Window) (*SQLFeed, error) {
	var all []types.Bar
	for _, t := range tickers {
		bars, err := store.Candles(ctx, t)
		if err != nil {
			return nil, err
		}
		if len(bars) == 0 {
			return nil, errors.Wrap(ErrNoData, t)
		}
		all = append(all, bars...)
	}
	return &SQLFeed{SliceFeed: NewSliceFeed(all, w), store: store}, nil
}

func (f *SQLFeed) Close() error { return f.store.Close() }
