package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"auction-predictor/src/models"
)

func newTestSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	cfg := &models.MConfig{Name: "test"}
	cfg.Storage.DBType = "sqlite"
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "nested", "test.db")
	cfg.Storage.PredictionRetentionDays = 30

	db, err := NewSQLiteDB(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestSQLiteAuctionHistory(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	records := []models.MAuctionRecord{
		{ProductDescription: "19 kg", ProductGroup: models.GroupCylinder, AuctionDate: date("2024-02-01"), Quantity: 5, ProposedRP: 120, LastBidPrice: 118},
		{ProductDescription: "14.2 kg", ProductGroup: models.GroupCylinder, AuctionDate: date("2024-01-01").Add(15 * time.Hour), Quantity: 3, ProposedRP: 100, LastBidPrice: 95},
		{ProductDescription: "sc valve", ProductGroup: models.GroupValve, AuctionDate: date("2024-01-15"), Quantity: 1, ProposedRP: 400, LastBidPrice: 410},
	}
	if err := db.SaveAuctionRecords(ctx, records); err != nil {
		t.Fatalf("SaveAuctionRecords: %v", err)
	}
	// Re-import is idempotent
	if err := db.SaveAuctionRecords(ctx, records); err != nil {
		t.Fatalf("SaveAuctionRecords (again): %v", err)
	}

	got, err := db.LoadAuctionHistory(ctx, models.GroupCylinder, date("2023-12-01"), date("2024-02-01"))
	if err != nil {
		t.Fatalf("LoadAuctionHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].AuctionDate.Equal(date("2024-01-01")) || got[0].ProposedRP != 100 {
		t.Errorf("first record = %+v", got[0])
	}
	if got[1].ProductDescription != "19 kg" {
		t.Errorf("second record = %+v", got[1])
	}

	got, err = db.LoadAuctionHistory(ctx, models.GroupCylinder, date("2024-01-02"), date("2024-01-31"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("range filter returned %d records", len(got))
	}
}

func TestSQLiteMarketQuotesUpsert(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	quotes := []models.MMarketQuote{
		{Metal: models.MetalCopper, Date: date("2024-01-02"), SpotPrice: 700000},
		{Metal: models.MetalCopper, Date: date("2024-01-03"), SpotPrice: 705000},
		{Metal: models.MetalZinc, Date: date("2024-01-03"), SpotPrice: 250000},
	}
	if err := db.SaveMarketQuotes(ctx, quotes); err != nil {
		t.Fatalf("SaveMarketQuotes: %v", err)
	}
	if err := db.SaveMarketQuotes(ctx, []models.MMarketQuote{
		{Metal: models.MetalCopper, Date: date("2024-01-03"), SpotPrice: 710000},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadMarketQuotes(ctx, models.MetalCopper, date("2024-01-01"), date("2024-01-31"))
	if err != nil {
		t.Fatalf("LoadMarketQuotes: %v", err)
	}
	if len(got) != 2 || got[1].SpotPrice != 710000 {
		t.Errorf("quotes = %+v", got)
	}

	latest, err := db.LatestQuoteDate(ctx, models.MetalCopper)
	if err != nil || !latest.Equal(date("2024-01-03")) {
		t.Errorf("LatestQuoteDate = %v, %v", latest, err)
	}
	none, err := db.LatestQuoteDate(ctx, "nickel")
	if err != nil || !none.IsZero() {
		t.Errorf("LatestQuoteDate(nickel) = %v, %v", none, err)
	}
}

func TestSQLitePredictionLogCleanup(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	old := models.MPredictionLog{ID: "old", ProductGroup: models.GroupCylinder, Quantity: 1,
		RequestDate: date("2024-01-01"), ResultJSON: "{}", CreatedAt: time.Now().AddDate(0, 0, -60)}
	fresh := old
	fresh.ID = "fresh"
	fresh.CreatedAt = time.Now()

	for _, p := range []models.MPredictionLog{old, fresh} {
		if err := db.SavePrediction(ctx, p); err != nil {
			t.Fatalf("SavePrediction: %v", err)
		}
	}
	if err := db.CleanupOldData(ctx); err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}

	var count int
	if err := db.DB.QueryRow("SELECT COUNT(*) FROM prediction_log").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("remaining rows = %d, want 1", count)
	}
}
