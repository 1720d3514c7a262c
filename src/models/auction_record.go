package models

import "time"

// Product groups served by the models.
const (
	GroupCylinder = "cylinder"
	GroupValve    = "valve"
)

// Metals used for the brass index.
const (
	MetalCopper = "copper"
	MetalZinc   = "zinc"
)

// MAuctionRecord is one historical auction lot.
type MAuctionRecord struct {
	ID                 int64     `json:"id"`
	ProductDescription string    `json:"product_description"`
	ProductGroup       string    `json:"product_group"`
	AuctionDate        time.Time `json:"auction_date"`
	Quantity           float64   `json:"quantity"`
	ProposedRP         float64   `json:"proposed_rp"`
	LastBidPrice       float64   `json:"last_bid_price"`
	TotalAmount        float64   `json:"total_amt"`
	Location           string    `json:"location"`
}

// MMarketQuote is a daily spot price for one metal (INR).
type MMarketQuote struct {
	Metal     string    `json:"metal"`
	Date      time.Time `json:"date"`
	SpotPrice float64   `json:"spot_price"`
}
