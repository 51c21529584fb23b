package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/models"
)

// MemoryDSN keeps the database in process memory only.
const MemoryDSN = ":memory:"

// SQLiteStore implements SessionStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ SessionStore = (*SQLiteStore)(nil)

// NewSessionStore creates a store that lives only as long as the process.
func NewSessionStore() (*SQLiteStore, error) {
	return NewSQLiteStore(MemoryDSN)
}

// NewSQLiteStore opens a session store at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to :memory: is its own database, so the pool must
	// hold exactly one connection for the store's lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS legs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		option_type TEXT NOT NULL,
		side TEXT NOT NULL,
		strike REAL NOT NULL,
		premium REAL NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		iv REAL,
		delta REAL,
		gamma REAL,
		theta REAL,
		vega REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Single-row market context
	CREATE TABLE IF NOT EXISTS market (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		ticker TEXT,
		spot REAL NOT NULL,
		days_to_expiry INTEGER NOT NULL,
		risk_free_rate REAL NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection. The session's data is gone after.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Legs Methods
// ============================================================================

// AddLeg stores a new leg. Type and side are normalised; any ID on the input
// is ignored.
func (s *SQLiteStore) AddLeg(ctx context.Context, leg models.StrategyLeg) (int64, error) {
	t, err := models.ParseOptionType(string(leg.Type))
	if err != nil {
		return 0, err
	}
	side, err := models.ParseSide(string(leg.Side))
	if err != nil {
		return 0, err
	}
	if !(leg.Strike > 0) {
		return 0, apperrors.NewValidationError("strike", leg.Strike, "must be positive")
	}
	if leg.Premium < 0 {
		return 0, apperrors.NewValidationError("premium", leg.Premium, "must not be negative")
	}
	if leg.Quantity <= 0 {
		return 0, apperrors.NewValidationError("quantity", leg.Quantity, "must be positive")
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO legs (option_type, side, strike, premium, quantity, iv, delta, gamma, theta, vega)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(t), string(side), leg.Strike, leg.Premium, leg.Quantity,
		leg.ImpliedVolatility, leg.Delta, leg.Gamma, leg.Theta, leg.Vega)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert leg: %v", apperrors.ErrDatabaseError, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read leg id: %v", apperrors.ErrDatabaseError, err)
	}
	return id, nil
}

// UpdateQuantity changes the quantity of an existing leg.
func (s *SQLiteStore) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity <= 0 {
		return apperrors.NewLegError(id, 0, apperrors.NewValidationError("quantity", quantity, "must be positive"))
	}

	result, err := s.db.ExecContext(ctx, `UPDATE legs SET quantity = ? WHERE id = ?`, quantity, id)
	if err != nil {
		return fmt.Errorf("%w: failed to update leg: %v", apperrors.ErrDatabaseError, err)
	}
	return requireRow(result, id)
}

// RemoveLeg deletes a leg.
func (s *SQLiteStore) RemoveLeg(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM legs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete leg: %v", apperrors.ErrDatabaseError, err)
	}
	return requireRow(result, id)
}

// Clear removes every leg. The market context is kept.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM legs`); err != nil {
		return fmt.Errorf("%w: failed to clear legs: %v", apperrors.ErrDatabaseError, err)
	}
	return nil
}

// Legs returns a fresh snapshot of every leg, oldest first.
func (s *SQLiteStore) Legs(ctx context.Context) ([]models.StrategyLeg, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, option_type, side, strike, premium, quantity, iv, delta, gamma, theta, vega
		FROM legs
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query legs: %v", apperrors.ErrDatabaseError, err)
	}
	defer rows.Close()

	legs := []models.StrategyLeg{}
	for rows.Next() {
		var leg models.StrategyLeg
		var t, side string
		var iv, delta, gamma, theta, vega sql.NullFloat64
		if err := rows.Scan(&leg.ID, &t, &side, &leg.Strike, &leg.Premium, &leg.Quantity,
			&iv, &delta, &gamma, &theta, &vega); err != nil {
			return nil, fmt.Errorf("%w: failed to scan leg: %v", apperrors.ErrDatabaseError, err)
		}
		leg.Type = models.OptionType(t)
		leg.Side = models.PositionSide(side)
		leg.ImpliedVolatility = nullable(iv)
		leg.Delta = nullable(delta)
		leg.Gamma = nullable(gamma)
		leg.Theta = nullable(theta)
		leg.Vega = nullable(vega)
		legs = append(legs, leg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating legs: %v", apperrors.ErrDatabaseError, err)
	}
	return legs, nil
}

// ============================================================================
// Market Methods
// ============================================================================

// SetMarket replaces the session's market context.
func (s *SQLiteStore) SetMarket(ctx context.Context, market models.MarketContext) error {
	if !(market.CurrentSpot > 0) {
		return apperrors.ErrInvalidSpot
	}
	if market.DaysToExpiry < 0 {
		return apperrors.NewValidationError("days_to_expiry", market.DaysToExpiry, "must not be negative")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO market (id, ticker, spot, days_to_expiry, risk_free_rate, updated_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, market.Ticker, market.CurrentSpot, market.DaysToExpiry, market.RiskFreeRate)
	if err != nil {
		return fmt.Errorf("%w: failed to save market: %v", apperrors.ErrDatabaseError, err)
	}
	return nil
}

// Market returns the session's market context, or ErrDataNotFound if none
// has been set.
func (s *SQLiteStore) Market(ctx context.Context) (models.MarketContext, error) {
	var m models.MarketContext
	var ticker sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT ticker, spot, days_to_expiry, risk_free_rate FROM market WHERE id = 1
	`).Scan(&ticker, &m.CurrentSpot, &m.DaysToExpiry, &m.RiskFreeRate)
	if err == sql.ErrNoRows {
		return m, fmt.Errorf("%w: market context not set", apperrors.ErrDataNotFound)
	}
	if err != nil {
		return m, fmt.Errorf("%w: failed to load market: %v", apperrors.ErrDatabaseError, err)
	}
	m.Ticker = ticker.String
	return m, nil
}

func requireRow(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err)
	}
	if n == 0 {
		return apperrors.NewLegError(id, 0, apperrors.ErrLegNotFound)
	}
	return nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}
