package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Prices is a currency amount converted to native and USD units.
// A nil field means the conversion is unknown.
type Prices struct {
	NativePrice *big.Int
	USDPrice    *big.Int
}

// Source identifies a marketplace, aggregator or fill front-end.
type Source struct {
	ID     int    `json:"id"`
	Domain string `json:"domain"`
}

// Attribution is what is known about who routed a transaction.
type Attribution struct {
	Taker            *common.Address
	OrderSource      *Source
	AggregatorSource *Source
	FillSource       *Source
}

func (s *Source) IDPtr() *int {
	if s == nil {
		return nil
	}
	id := s.ID
	return &id
}
