package data_source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"auction-predictor/src/analysis"
	"auction-predictor/src/helpers"
	"auction-predictor/src/interfaces"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"

	"github.com/xuri/excelize/v2"
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
	"2006/01/02",
}

// Column aliases (lower-cased, trimmed header -> canonical name).
var auctionColumns = map[string]string{
	"auction date":        "auction_date",
	"auction_date":        "auction_date",
	"productdescription":  "product_description",
	"product description": "product_description",
	"product_description": "product_description",
	"quantity":            "quantity",
	"proposed_rp":         "proposed_rp",
	"proposed rp":         "proposed_rp",
	"last_bid_price":      "last_bid_price",
	"last bid price":      "last_bid_price",
	"total_amt":           "total_amt",
	"total amt":           "total_amt",
	"location":            "location",
}

var quoteColumns = map[string]string{
	"date":            "date",
	"spot price(rs.)": "spot_price",
	"spot_price":      "spot_price",
	"spot price":      "spot_price",
}

// ImportStats summarises one file import.
type ImportStats struct {
	Rows     int            `json:"rows"`
	Imported int            `json:"imported"`
	Invalid  int            `json:"invalid"`
	Unknown  map[string]int `json:"unknown_products,omitempty"`
}

// Importer loads auction and metal price workbooks into the history store.
type Importer struct {
	DB     interfaces.IDatabase
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewImporter(db interfaces.IDatabase, log *logger.Logger) *Importer {
	return &Importer{DB: db, Logger: log}
}

// -----------------------------------------------------------------------------

// ImportAuctions reads an auction workbook (.xlsx or .csv) and stores its lots.
func (im *Importer) ImportAuctions(ctx context.Context, path string) (ImportStats, error) {
	rows, err := ReadTable(path)
	if err != nil {
		return ImportStats{}, err
	}
	records, stats, err := ParseAuctionRows(rows)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	if err := im.DB.SaveAuctionRecords(ctx, records); err != nil {
		return stats, fmt.Errorf("save auction records: %w", err)
	}
	for desc, n := range stats.Unknown {
		im.Logger.Warning("Skipped %d rows with unknown product description %q", n, desc)
	}
	im.Logger.Info("Imported %d/%d auction rows from %s", stats.Imported, stats.Rows, path)
	return stats, nil
}

// ImportQuotes reads a metal price workbook and upserts its quotes.
func (im *Importer) ImportQuotes(ctx context.Context, metal, path string) (ImportStats, error) {
	rows, err := ReadTable(path)
	if err != nil {
		return ImportStats{}, err
	}
	quotes, stats, err := ParseQuoteRows(metal, rows)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	if err := im.DB.SaveMarketQuotes(ctx, quotes); err != nil {
		return stats, fmt.Errorf("save %s quotes: %w", metal, err)
	}
	im.Logger.Info("Imported %d/%d %s quotes from %s", stats.Imported, stats.Rows, metal, path)
	return stats, nil
}

// -----------------------------------------------------------------------------

// ReadTable returns all rows of the first sheet of an .xlsx file, or of a CSV file.
func ReadTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, helpers.NewDataError(err, "open workbook %s", path)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, helpers.NewDataError(nil, "workbook %s has no sheets", path)
		}
		rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, helpers.NewDataError(err, "read sheet %s", sheets[0])
		}
		return rows, nil
	case ".csv":
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		r := csv.NewReader(fh)
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		rows, err := r.ReadAll()
		if err != nil {
			return nil, helpers.NewDataError(err, "parse csv %s", path)
		}
		return rows, nil
	}
	return nil, helpers.NewValidationError("unsupported file type %q", filepath.Ext(path))
}

// -----------------------------------------------------------------------------

// ParseAuctionRows converts a header row plus data rows into auction records.
// Rows with unparsable fields count as invalid; unknown products are skipped.
func ParseAuctionRows(rows [][]string) ([]models.MAuctionRecord, ImportStats, error) {
	stats := ImportStats{Unknown: map[string]int{}}
	if len(rows) == 0 {
		return nil, stats, helpers.NewDataError(nil, "empty table")
	}
	idx := headerIndex(rows[0], auctionColumns)
	for _, col := range []string{"auction_date", "product_description", "quantity", "proposed_rp", "last_bid_price"} {
		if _, ok := idx[col]; !ok {
			return nil, stats, helpers.NewDataError(nil, "missing %q column", col)
		}
	}

	var out []models.MAuctionRecord
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		stats.Rows++

		desc := cell(row, idx, "product_description")
		group := analysis.MapProductGroup(desc)
		if group == "" {
			stats.Unknown[strings.ToLower(strings.TrimSpace(desc))]++
			continue
		}

		date, err := ParseDate(cell(row, idx, "auction_date"))
		if err != nil {
			stats.Invalid++
			continue
		}
		qty, err1 := ParseNumber(cell(row, idx, "quantity"))
		prp, err2 := ParseNumber(cell(row, idx, "proposed_rp"))
		lbp, err3 := ParseNumber(cell(row, idx, "last_bid_price"))
		if err1 != nil || err2 != nil || err3 != nil {
			stats.Invalid++
			continue
		}
		total, _ := ParseNumber(cell(row, idx, "total_amt"))

		out = append(out, models.MAuctionRecord{
			ProductDescription: strings.TrimSpace(desc),
			ProductGroup:       group,
			AuctionDate:        date,
			Quantity:           qty,
			ProposedRP:         prp,
			LastBidPrice:       lbp,
			TotalAmount:        total,
			Location:           strings.TrimSpace(cell(row, idx, "location")),
		})
		stats.Imported++
	}
	return out, stats, nil
}

// -----------------------------------------------------------------------------

// ParseQuoteRows converts a metal price table into quotes.
func ParseQuoteRows(metal string, rows [][]string) ([]models.MMarketQuote, ImportStats, error) {
	var stats ImportStats
	if len(rows) == 0 {
		return nil, stats, helpers.NewDataError(nil, "empty table")
	}
	idx := headerIndex(rows[0], quoteColumns)
	for _, col := range []string{"date", "spot_price"} {
		if _, ok := idx[col]; !ok {
			return nil, stats, helpers.NewDataError(nil, "missing %q column", col)
		}
	}

	var out []models.MMarketQuote
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		stats.Rows++
		date, err := ParseDate(cell(row, idx, "date"))
		if err != nil {
			stats.Invalid++
			continue
		}
		price, err := ParseNumber(cell(row, idx, "spot_price"))
		if err != nil || price <= 0 {
			stats.Invalid++
			continue
		}
		out = append(out, models.MMarketQuote{Metal: metal, Date: date, SpotPrice: price})
		stats.Imported++
	}
	return out, stats, nil
}

// -----------------------------------------------------------------------------

// ParseDate accepts the workbook date layouts as well as raw Excel serial dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseNumber parses numbers with thousands separators, e.g. "1,23,456.50".
func ParseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(s, 64)
}

// -----------------------------------------------------------------------------

func headerIndex(header []string, aliases map[string]string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := aliases[key]; ok {
			if _, seen := idx[canonical]; !seen {
				idx[canonical] = i
			}
		}
	}
	return idx
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
