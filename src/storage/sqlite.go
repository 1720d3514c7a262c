package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"auction-predictor/src/logger"
	"auction-predictor/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath
	if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	queries := []string{
		`CREATE TABLE IF NOT EXISTS auction_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_description TEXT,
			product_group TEXT,
			auction_date INTEGER,
			quantity REAL,
			proposed_rp REAL,
			last_bid_price REAL,
			total_amt REAL,
			location TEXT,
			UNIQUE (product_description, auction_date, location, quantity, proposed_rp, last_bid_price)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_auction_group_date ON auction_records (product_group, auction_date);`,
		`CREATE TABLE IF NOT EXISTS market_quotes (
			metal TEXT,
			date INTEGER,
			spot_price REAL,
			PRIMARY KEY (metal, date)
		);`,
		`CREATE TABLE IF NOT EXISTS prediction_log (
			id TEXT PRIMARY KEY,
			product_group TEXT,
			quantity REAL,
			request_date INTEGER,
			location TEXT,
			result TEXT,
			created_at INTEGER
		);`,
	}
	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveAuctionRecords(ctx context.Context, records []models.MAuctionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO auction_records
			(product_description, product_group, auction_date, quantity, proposed_rp, last_bid_price, total_amt, location)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx, r.ProductDescription, r.ProductGroup, dayUnix(r.AuctionDate),
			r.Quantity, r.ProposedRP, r.LastBidPrice, r.TotalAmount, r.Location)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveMarketQuotes(ctx context.Context, quotes []models.MMarketQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_quotes (metal, date, spot_price)
		VALUES (?, ?, ?)
		ON CONFLICT (metal, date) DO UPDATE SET spot_price = excluded.spot_price
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range quotes {
		if _, err := stmt.ExecContext(ctx, q.Metal, dayUnix(q.Date), q.SpotPrice); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) LoadAuctionHistory(ctx context.Context, group string, from, to time.Time) ([]models.MAuctionRecord, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, product_description, product_group, auction_date, quantity, proposed_rp, last_bid_price, total_amt, location
		FROM auction_records
		WHERE product_group = ? AND auction_date >= ? AND auction_date <= ?
		ORDER BY auction_date, id
	`, group, dayUnix(from), dayUnix(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuctionRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) LoadMarketQuotes(ctx context.Context, metal string, from, to time.Time) ([]models.MMarketQuote, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT metal, date, spot_price FROM market_quotes
		WHERE metal = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, metal, dayUnix(from), dayUnix(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMarketQuotes(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) LatestQuoteDate(ctx context.Context, metal string) (time.Time, error) {
	var latest sql.NullInt64
	err := d.DB.QueryRowContext(ctx, `SELECT MAX(date) FROM market_quotes WHERE metal = ?`, metal).Scan(&latest)
	if err != nil || !latest.Valid {
		return time.Time{}, err
	}
	return fromUnix(latest.Int64), nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SavePrediction(ctx context.Context, p models.MPredictionLog) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO prediction_log (id, product_group, quantity, request_date, location, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.ProductGroup, p.Quantity, dayUnix(p.RequestDate), p.Location, p.ResultJSON, p.CreatedAt.UTC().Unix())
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CleanupOldData(ctx context.Context) error {
	retentionDays := d.Config.Storage.PredictionRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up predictions older than %d days (created_at < %d)...", retentionDays, cutoff)

	res, err := d.DB.ExecContext(ctx, "DELETE FROM prediction_log WHERE created_at < ?", cutoff)
	if err != nil {
		d.Logger.Error("Cleanup prediction_log error: %v", err)
		return err
	}
	n, _ := res.RowsAffected()
	d.Logger.Info("Cleanup completed (%d rows)", n)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
