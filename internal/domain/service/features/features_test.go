package features_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"estymator/internal/domain/entity"
	"estymator/internal/domain/service/features"
	"estymator/pkg/tests"
)

func TestBuildDerivedNumerics(t *testing.T) {
	rq := require.New(t)

	fv := features.Build(entity.ValuationRequest{
		City:      "Olsztyn",
		Area:      60,
		Rooms:     3,
		YearBuilt: 2015,
	})

	get := func(name string) float64 {
		val, ok := fv.Get(name)
		rq.True(ok, "feature %q missing", name)
		return val
	}

	rq.InDelta(20.0, get("area_per_room"), 1e-9)
	rq.InDelta(9.0, get("building_age"), 1e-9)
	rq.InDelta(math.Sqrt(60), get("sqrt_area"), 1e-9)
	rq.InDelta(math.Log1p(60), get("log_area"), 1e-9)
	rq.InDelta(3600.0, get("area_squared"), 1e-9)
	rq.InDelta(180.0, get("area_rooms"), 1e-9)
	rq.InDelta(540.0, get("area_age"), 1e-9)
	rq.InDelta(0.05, get("density"), 1e-9)
}

func TestBuildBinaryCutoffs(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name    string
		area    float64
		year    int
		feature string
		want    float64
	}{
		{"large above cutoff", 70.5, 2000, "is_large_apartment", 1},
		{"large at cutoff is not large", 70, 2000, "is_large_apartment", 0},
		{"small below cutoff", 44, 2000, "is_small_apartment", 1},
		{"small at cutoff is not small", 45, 2000, "is_small_apartment", 0},
		{"new building from 2010", 60, 2010, "is_new_building", 1},
		{"old building", 60, 2009, "is_new_building", 0},
		{"premium above 100", 101, 2000, "is_premium_area", 1},
		{"premium at 100 is not premium", 100, 2000, "is_premium_area", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			fv := features.Build(entity.ValuationRequest{
				City:      "Olsztyn",
				Area:      tc.area,
				Rooms:     2,
				YearBuilt: tc.year,
			})

			got, ok := fv.Get(tc.feature)
			rq.True(ok)
			rq.Equal(tc.want, got, tc.name)
		})
	}
}

func TestLookupUnknownCityFallsBackToDefault(t *testing.T) {
	rq := require.New(t)

	unknown := features.Lookup("Warszawa")
	rq.Equal(features.Lookup("Olsztyn"), unknown)

	dywity := features.Lookup("Dywity")
	rq.InDelta(10800, dywity.PricePerSqmMean, 1e-9)
	rq.InDelta(60, dywity.AreaMedian, 1e-9)
}

func TestBuildPriceProxyCorrections(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name string
		year int
		area float64
		want float64
	}{
		{"very new large", 2016, 90, 12500 * 1.15 * 1.05},
		{"new", 2012, 60, 12500 * 1.10},
		{"modern", 2005, 60, 12500 * 1.05},
		{"base decade", 1995, 60, 12500},
		{"old small", 1980, 35, 12500 * 0.90 * 0.95},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			fv := features.Build(entity.ValuationRequest{
				City:      "Olsztyn",
				Area:      tc.area,
				Rooms:     2,
				YearBuilt: tc.year,
			})

			got, ok := fv.Get("price_per_sqm")
			rq.True(ok)
			rq.InDelta(tc.want, got, 1e-6)
		})
	}
}

func TestBuildPercentilesClipped(t *testing.T) {
	rq := require.New(t)

	fv := features.Build(entity.ValuationRequest{
		City:      "Olsztyn",
		Area:      200, // выше верхнего якоря
		Rooms:     5,
		YearBuilt: 1900, // возраст выше 50 лет
	})

	areaPct, _ := fv.Get("area_percentile")
	agePct, _ := fv.Get("age_percentile")
	rq.Equal(1.0, areaPct)
	rq.Equal(1.0, agePct)

	fv = features.Build(entity.ValuationRequest{
		City:      "Olsztyn",
		Area:      25, // ниже нижнего якоря
		Rooms:     1,
		YearBuilt: 2024,
	})

	areaPct, _ = fv.Get("area_percentile")
	agePct, _ = fv.Get("age_percentile")
	rq.Equal(0.0, areaPct)
	rq.Equal(0.0, agePct)
}

func TestBuildOneHot(t *testing.T) {
	rq := require.New(t)

	fv := features.Build(entity.ValuationRequest{
		City:      "Dywity",
		Area:      60,
		Rooms:     3,
		YearBuilt: 2000,
		Condition: "good",
		Parking:   "spaceship", // неизвестное значение
	})

	dywity, _ := fv.Get("city_Dywity")
	olsztyn, _ := fv.Get("city_Olsztyn")
	rq.Equal(1.0, dywity)
	rq.Equal(0.0, olsztyn)

	condGood, _ := fv.Get("condition_good")
	rq.Equal(1.0, condGood)

	// Нераспознанная категория: вся группа индикаторов нулевая.
	for _, name := range []string{"parking_none", "parking_street", "parking_garage"} {
		val, ok := fv.Get(name)
		rq.True(ok)
		rq.Equal(0.0, val, name)
	}
}

func TestBuildDeterministicOrder(t *testing.T) {
	rq := require.New(t)

	req := entity.ValuationRequest{City: "Olsztyn", Area: 60, Rooms: 3, YearBuilt: 2015}

	first := features.Build(req).Names()
	second := features.Build(req).Names()

	rq.Equal(first, second)
}

func TestBuildInvariantsOnRandomInput(t *testing.T) {
	rq := require.New(t)
	random := tests.NewRandomizer()

	cities := []string{"Olsztyn", "Dywity", "Stawiguda", "olsztyński", "Gietrzwałd"}

	for i := 0; i < 200; i++ {
		req := entity.ValuationRequest{
			City:      cities[i%len(cities)],
			Area:      20 + random.Float64()*180,
			Rooms:     1 + i%5,
			Floor:     i % 10,
			YearBuilt: 1950 + i%75,
		}
		if random.Bool() {
			req.Condition = "good"
		}

		fv := features.Build(req)

		for _, name := range []string{"area_percentile", "price_percentile", "age_percentile"} {
			val, ok := fv.Get(name)
			rq.True(ok, name)
			rq.GreaterOrEqual(val, 0.0, name)
			rq.LessOrEqual(val, 1.0, name)
		}

		// город даёт не больше одной единицы среди city_*
		var citySum float64
		for _, city := range []string{"Olsztyn", "Dywity", "Stawiguda", "olsztyński"} {
			val, _ := fv.Get("city_" + city)
			citySum += val
		}
		rq.LessOrEqual(citySum, 1.0)

		proxy, _ := fv.Get("price_per_sqm")
		rq.Positive(proxy)
	}
}
