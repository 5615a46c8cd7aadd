package valuation

import (
	"strings"

	"estymator/internal/domain/entity"
)

const (
	heuristicBaseDefault = 7000.0
	roomCorrection       = 15000.0
	emergencyPrice       = 500000.0
)

//nolint:gochecknoglobals
var heuristicBasePerSqm = map[string]float64{
	"olsztyn":   7500,
	"stawiguda": 6500,
	"dywity":    6500,
}

// heuristicPrice терминальная стадия цепочки: чистая арифметика над полями
// запроса. Все входы дефолтятся до использования, стадия не может упасть.
func heuristicPrice(req entity.ValuationRequest) float64 {
	base, ok := heuristicBasePerSqm[strings.ToLower(req.City)]
	if !ok {
		base = heuristicBaseDefault
	}

	area := req.Area
	if area <= 0 {
		area = 50
	}

	rooms := req.Rooms
	if rooms < 1 {
		rooms = 1
	}

	year := req.YearBuilt
	if year == 0 {
		year = entity.DefaultYearBuilt
	}

	price := area * base

	if rooms > 2 {
		price += float64(rooms-2) * roomCorrection
	}

	switch {
	case year > 2010:
		price *= 1.05
	case year < 1970:
		price *= 0.90
	}

	return roundTo1000(price)
}
