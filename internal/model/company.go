package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Quote is a live market snapshot for a symbol.
type Quote struct {
	Symbol        string
	MarketState   string
	Price         null.Float
	PreviousClose null.Float
	ChangePct     null.Float
	Open          null.Float
	High          null.Float
	Low           null.Float
	Volume        null.Int
	FetchedAt     time.Time
}

// Officer is a named company executive.
type Officer struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// CompanyProfile holds descriptive company metadata.
type CompanyProfile struct {
	Symbol          string
	Name            string
	BusinessSummary string
	Industry        string
	Sector          string
	Officers        []Officer
}
