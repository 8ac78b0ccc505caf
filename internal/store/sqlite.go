package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "dca-trader/internal/errors"
	"dca-trader/internal/models"
)

// SQLiteStore implements TradeStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed trade store at the given
// path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		exchange TEXT NOT NULL,
		market_type TEXT NOT NULL,
		side TEXT NOT NULL,
		leverage REAL NOT NULL DEFAULT 1,
		position_size REAL NOT NULL,
		entry_price REAL NOT NULL,
		stop_loss_price REAL,
		take_profit_price REAL,
		unrealized_pnl REAL NOT NULL DEFAULT 0,
		realized_pnl REAL,
		status TEXT NOT NULL DEFAULT 'OPEN',
		strategy_id TEXT,
		signal_id TEXT,
		payload_json TEXT,
		opened_at DATETIME NOT NULL,
		closed_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, opened_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// OpenTrade inserts a new open trade.
func (s *SQLiteStore) OpenTrade(ctx context.Context, record TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (
			id, symbol, exchange, market_type, side, leverage,
			position_size, entry_price, stop_loss_price, take_profit_price,
			unrealized_pnl, status, strategy_id, signal_id, payload_json, opened_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Symbol, string(record.Exchange), string(record.MarketType),
		string(record.Side), record.Leverage, record.PositionSize, record.EntryPrice,
		record.StopLossPrice, record.TakeProfit, record.UnrealizedPnL,
		string(StatusOpen), record.StrategyID, record.SignalID, record.PayloadJSON,
		record.OpenedAt.UTC(),
	)
	if err != nil {
		return &apperrors.StoreError{Op: "open", TradeID: record.ID, Err: err}
	}
	return nil
}

// CloseTrade marks a trade closed with its realized P&L.
func (s *SQLiteStore) CloseTrade(ctx context.Context, id string, realizedPnL float64, closedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE trades SET status = ?, realized_pnl = ?, closed_at = ?
		WHERE id = ? AND status = ?`,
		string(StatusClosed), realizedPnL, closedAt.UTC(), id, string(StatusOpen),
	)
	if err != nil {
		return &apperrors.StoreError{Op: "close", TradeID: id, Err: err}
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return &apperrors.StoreError{Op: "close", TradeID: id, Err: err}
	}
	if rows == 0 {
		return &apperrors.StoreError{Op: "close", TradeID: id, Err: apperrors.ErrTradeNotFound}
	}
	return nil
}

// GetTrade fetches a trade by ID.
func (s *SQLiteStore) GetTrade(ctx context.Context, id string) (*TradeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, exchange, market_type, side, leverage,
			position_size, entry_price,
			COALESCE(stop_loss_price, 0), COALESCE(take_profit_price, 0),
			unrealized_pnl, COALESCE(realized_pnl, 0), status,
			COALESCE(strategy_id, ''), COALESCE(signal_id, ''),
			COALESCE(payload_json, ''), opened_at, COALESCE(closed_at, opened_at)
		FROM trades WHERE id = ?`, id)

	record, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, &apperrors.StoreError{Op: "get", TradeID: id, Err: apperrors.ErrTradeNotFound}
	}
	if err != nil {
		return nil, &apperrors.StoreError{Op: "get", TradeID: id, Err: err}
	}
	return record, nil
}

// ListOpenTrades returns all open trades, oldest first.
func (s *SQLiteStore) ListOpenTrades(ctx context.Context) ([]TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, exchange, market_type, side, leverage,
			position_size, entry_price,
			COALESCE(stop_loss_price, 0), COALESCE(take_profit_price, 0),
			unrealized_pnl, COALESCE(realized_pnl, 0), status,
			COALESCE(strategy_id, ''), COALESCE(signal_id, ''),
			COALESCE(payload_json, ''), opened_at, COALESCE(closed_at, opened_at)
		FROM trades WHERE status = ? ORDER BY opened_at ASC`, string(StatusOpen))
	if err != nil {
		return nil, &apperrors.StoreError{Op: "list_open", Err: err}
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		record, err := scanTrade(rows)
		if err != nil {
			return nil, &apperrors.StoreError{Op: "list_open", Err: err}
		}
		trades = append(trades, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.StoreError{Op: "list_open", Err: err}
	}
	return trades, nil
}

// UpdateUnrealizedPnL updates the mark-to-market P&L of an open trade.
func (s *SQLiteStore) UpdateUnrealizedPnL(ctx context.Context, id string, pnl float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE trades SET unrealized_pnl = ? WHERE id = ? AND status = ?`,
		pnl, id, string(StatusOpen),
	)
	if err != nil {
		return &apperrors.StoreError{Op: "update_pnl", TradeID: id, Err: err}
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return &apperrors.StoreError{Op: "update_pnl", TradeID: id, Err: err}
	}
	if rows == 0 {
		return &apperrors.StoreError{Op: "update_pnl", TradeID: id, Err: apperrors.ErrTradeNotFound}
	}
	return nil
}

// LastTradeTime returns the open time of the most recent trade for a
// symbol, or the zero time when none exists.
func (s *SQLiteStore) LastTradeTime(ctx context.Context, symbol string) (time.Time, error) {
	var opened sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(opened_at) FROM trades WHERE symbol = ?`, symbol).Scan(&opened)
	if err != nil {
		return time.Time{}, &apperrors.StoreError{Op: "last_trade_time", Err: err}
	}
	if !opened.Valid {
		return time.Time{}, nil
	}
	return opened.Time, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row rowScanner) (*TradeRecord, error) {
	var r TradeRecord
	var exchange, marketType, side, status string
	err := row.Scan(
		&r.ID, &r.Symbol, &exchange, &marketType, &side, &r.Leverage,
		&r.PositionSize, &r.EntryPrice, &r.StopLossPrice, &r.TakeProfit,
		&r.UnrealizedPnL, &r.RealizedPnL, &status,
		&r.StrategyID, &r.SignalID, &r.PayloadJSON, &r.OpenedAt, &r.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Exchange = models.ExchangeName(exchange)
	r.MarketType = models.MarketType(marketType)
	r.Side = models.Side(side)
	r.Status = TradeStatus(status)
	return &r, nil
}
