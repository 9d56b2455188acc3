// Package source contains the data source adapters: each one fetches a
// single external feed and normalizes it into the store's record types.
// Adapters are independently fallible; a failing adapter never blocks the
// others.
package source

import "time"

// Asset describes one tracked asset. The dashboard tracks exactly two:
// the base (BTC) and the quote-comparison asset (ETH).
type Asset struct {
	ID      string
	Name    string
	Symbol  string
	Pair    string // exchange trading pair
	Image   string
	Genesis time.Time // first candle for the "all" range
}

var (
	Bitcoin = Asset{
		ID:      "bitcoin",
		Name:    "Bitcoin",
		Symbol:  "BTC",
		Pair:    "BTCUSDT",
		Image:   "https://assets.coingecko.com/coins/images/1/large/bitcoin.png",
		Genesis: time.Date(2009, time.January, 3, 0, 0, 0, 0, time.UTC),
	}
	Ethereum = Asset{
		ID:      "ethereum",
		Name:    "Ethereum",
		Symbol:  "ETH",
		Pair:    "ETHUSDT",
		Image:   "https://assets.coingecko.com/coins/images/279/large/ethereum.png",
		Genesis: time.Date(2015, time.July, 30, 0, 0, 0, 0, time.UTC),
	}
)

// Tracked lists the assets in render order: base first, quote second.
var Tracked = []Asset{Bitcoin, Ethereum}
