package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"auction-predictor/src/logger"
	"auction-predictor/src/models"

	_ "github.com/lib/pq"
)

var schemaNameSanitizer = regexp.MustCompile(`[^a-z0-9_]`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema named after the application, quoted in SQL
	name := schemaNameSanitizer.ReplaceAllString(strings.ToLower(cfg.Name), "_")
	if name == "" {
		return nil, fmt.Errorf("cannot derive schema name from %q", cfg.Name)
	}

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) table(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	queries := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				product_description TEXT,
				product_group TEXT,
				auction_date BIGINT,
				quantity DOUBLE PRECISION,
				proposed_rp DOUBLE PRECISION,
				last_bid_price DOUBLE PRECISION,
				total_amt DOUBLE PRECISION,
				location TEXT,
				UNIQUE (product_description, auction_date, location, quantity, proposed_rp, last_bid_price)
			);
		`, d.table("auction_records")),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_auction_group_date ON %s (product_group, auction_date);`,
			d.table("auction_records")),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				metal TEXT,
				date BIGINT,
				spot_price DOUBLE PRECISION,
				PRIMARY KEY (metal, date)
			);
		`, d.table("market_quotes")),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				product_group TEXT,
				quantity DOUBLE PRECISION,
				request_date BIGINT,
				location TEXT,
				result TEXT,
				created_at BIGINT
			);
		`, d.table("prediction_log")),
	}
	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveAuctionRecords(ctx context.Context, records []models.MAuctionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s
			(product_description, product_group, auction_date, quantity, proposed_rp, last_bid_price, total_amt, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
	`, d.table("auction_records"))

	stmt, err := tx.PrepareContext(ctx, query)
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

func (d *PostgresDB) SaveMarketQuotes(ctx context.Context, quotes []models.MMarketQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (metal, date, spot_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (metal, date) DO UPDATE SET spot_price = EXCLUDED.spot_price
	`, d.table("market_quotes"))

	stmt, err := tx.PrepareContext(ctx, query)
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

func (d *PostgresDB) LoadAuctionHistory(ctx context.Context, group string, from, to time.Time) ([]models.MAuctionRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, product_description, product_group, auction_date, quantity, proposed_rp, last_bid_price, total_amt, location
		FROM %s
		WHERE product_group = $1 AND auction_date >= $2 AND auction_date <= $3
		ORDER BY auction_date, id
	`, d.table("auction_records"))

	rows, err := d.DB.QueryContext(ctx, query, group, dayUnix(from), dayUnix(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuctionRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadMarketQuotes(ctx context.Context, metal string, from, to time.Time) ([]models.MMarketQuote, error) {
	query := fmt.Sprintf(`
		SELECT metal, date, spot_price FROM %s
		WHERE metal = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`, d.table("market_quotes"))

	rows, err := d.DB.QueryContext(ctx, query, metal, dayUnix(from), dayUnix(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMarketQuotes(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LatestQuoteDate(ctx context.Context, metal string) (time.Time, error) {
	var latest sql.NullInt64
	query := fmt.Sprintf(`SELECT MAX(date) FROM %s WHERE metal = $1`, d.table("market_quotes"))
	if err := d.DB.QueryRowContext(ctx, query, metal).Scan(&latest); err != nil || !latest.Valid {
		return time.Time{}, err
	}
	return fromUnix(latest.Int64), nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SavePrediction(ctx context.Context, p models.MPredictionLog) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, product_group, quantity, request_date, location, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.table("prediction_log"))
	_, err := d.DB.ExecContext(ctx, query, p.ID, p.ProductGroup, p.Quantity, dayUnix(p.RequestDate),
		p.Location, p.ResultJSON, p.CreatedAt.UTC().Unix())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData(ctx context.Context) error {
	retentionDays := d.Config.Storage.PredictionRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up predictions older than %d days (created_at < %d)...", retentionDays, cutoff)

	query := fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, d.table("prediction_log"))
	if _, err := d.DB.ExecContext(ctx, query, cutoff); err != nil {
		d.Logger.Error("Cleanup prediction_log error: %v", err)
		return err
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
