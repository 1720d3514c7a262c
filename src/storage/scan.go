package storage

import (
	"database/sql"

	"auction-predictor/src/models"
)

// -----------------------------------------------------------------------------

func scanAuctionRecords(rows *sql.Rows) ([]models.MAuctionRecord, error) {
	var out []models.MAuctionRecord
	for rows.Next() {
		var r models.MAuctionRecord
		var date int64
		if err := rows.Scan(&r.ID, &r.ProductDescription, &r.ProductGroup, &date,
			&r.Quantity, &r.ProposedRP, &r.LastBidPrice, &r.TotalAmount, &r.Location); err != nil {
			return nil, err
		}
		r.AuctionDate = fromUnix(date)
		out = append(out, r)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func scanMarketQuotes(rows *sql.Rows) ([]models.MMarketQuote, error) {
	var out []models.MMarketQuote
	for rows.Next() {
		var q models.MMarketQuote
		var date int64
		if err := rows.Scan(&q.Metal, &date, &q.SpotPrice); err != nil {
			return nil, err
		}
		q.Date = fromUnix(date)
		out = append(out, q)
	}
	return out, rows.Err()
}
