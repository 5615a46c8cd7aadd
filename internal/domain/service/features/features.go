package features

import (
	"math"

	"estymator/internal/domain/entity"
	"estymator/internal/domain/value"
)

// Константы заморожены на момент обучения моделей. Менять их без
// переобучения нельзя: артефакты ожидают ровно такие значения.
const referenceYear = 2024

const (
	largeAreaCutoff   = 70.0
	smallAreaCutoff   = 45.0
	premiumAreaCutoff = 100.0
	newBuildingYear   = 2010
)

// CityStats исторические средние по городу, зашиты при обучении.
type CityStats struct {
	PricePerSqmMean   float64
	PricePerSqmMedian float64
	AreaMean          float64
	AreaMedian        float64
}

// defaultCity строка статистики для неизвестного города. Интерполяции нет.
const defaultCity = "Olsztyn"

//nolint:gochecknoglobals
var cityStats = map[string]CityStats{
	"Olsztyn":    {PricePerSqmMean: 12500, PricePerSqmMedian: 12000, AreaMean: 58, AreaMedian: 55},
	"Dywity":     {PricePerSqmMean: 10800, PricePerSqmMedian: 10500, AreaMean: 62, AreaMedian: 60},
	"Stawiguda":  {PricePerSqmMean: 10200, PricePerSqmMedian: 9900, AreaMean: 65, AreaMedian: 62},
	"olsztyński": {PricePerSqmMean: 9500, PricePerSqmMedian: 9200, AreaMean: 68, AreaMedian: 65},
}

//nolint:gochecknoglobals
var knownCities = []string{"Olsztyn", "Dywity", "Stawiguda", "olsztyński"}

// Допустимые значения категориальных признаков. Неизвестное значение даёт
// полностью нулевую группу индикаторов, catch-all корзины нет.
//nolint:gochecknoglobals
var categoricals = []struct {
	name   string
	pick   func(entity.ValuationRequest) string
	values []string
}{
	{"condition", func(r entity.ValuationRequest) string { return r.Condition }, []string{"good", "average", "renovated", "to_renovate"}},
	{"parking", func(r entity.ValuationRequest) string { return r.Parking }, []string{"none", "street", "garage"}},
	{"finishing", func(r entity.ValuationRequest) string { return r.Finishing }, []string{"standard", "high", "developer"}},
	{"building_type", func(r entity.ValuationRequest) string { return r.BuildingType }, []string{"apartment", "block", "tenement", "house"}},
	{"elevator", func(r entity.ValuationRequest) string { return r.Elevator }, []string{"yes", "no"}},
	{"balcony", func(r entity.ValuationRequest) string { return r.Balcony }, []string{"none", "balcony", "terrace"}},
	{"transport", func(r entity.ValuationRequest) string { return r.Transport }, []string{"low", "medium", "high"}},
}

// Lookup возвращает замороженную статистику города; неизвестный город
// резолвится в строку города по умолчанию.
func Lookup(city string) CityStats {
	if stats, ok := cityStats[city]; ok {
		return stats
	}
	return cityStats[defaultCity]
}

// Build строит полный именованный вектор признаков из запроса. Вектор ещё
// не выровнен под схему конкретной модели — это делает Reconcile.
// Запрос должен быть нормализован (Normalized) до вызова.
func Build(req entity.ValuationRequest) *value.FeatureVector {
	fv := value.NewFeatureVector()

	area := req.Area
	rooms := float64(req.Rooms)
	age := float64(referenceYear - req.YearBuilt)

	fv.Set("area", area)
	fv.Set("rooms", rooms)
	fv.Set("year_built", float64(req.YearBuilt))
	fv.Set("floor", float64(req.Floor))

	fv.Set("area_per_room", area/rooms)
	fv.Set("building_age", age)

	fv.Set("sqrt_area", math.Sqrt(area))
	fv.Set("log_area", math.Log1p(area))
	fv.Set("area_squared", area*area)

	fv.Set("area_rooms", area*rooms)
	fv.Set("area_age", area*age)
	fv.Set("density", rooms/area)

	fv.Set("is_large_apartment", indicator(area > largeAreaCutoff))
	fv.Set("is_small_apartment", indicator(area < smallAreaCutoff))
	fv.Set("is_new_building", indicator(req.YearBuilt >= newBuildingYear))
	fv.Set("is_premium_area", indicator(area > premiumAreaCutoff))

	stats := Lookup(req.City)
	fv.Set("price_per_sqm_mean", stats.PricePerSqmMean)
	fv.Set("price_per_sqm_median", stats.PricePerSqmMedian)
	fv.Set("area_mean", stats.AreaMean)
	fv.Set("area_median", stats.AreaMedian)

	proxy := pricePerSqmProxy(stats, req.YearBuilt, area)
	fv.Set("price_per_sqm", proxy)

	fv.Set("area_vs_city_mean", area/stats.AreaMean)
	fv.Set("price_vs_city_mean", proxy/stats.PricePerSqmMean)
	fv.Set("price_vs_city_median", proxy/stats.PricePerSqmMedian)

	// Псевдоперцентили: линейный клип по фиксированным якорям, а не по
	// живому распределению.
	fv.Set("area_percentile", clip01((area-30)/70))
	fv.Set("price_percentile", clip01((proxy-8000)/8000))
	fv.Set("age_percentile", clip01(age/50))

	fv.Set("is_budget_segment", indicator(proxy < 10000))

	for _, city := range knownCities {
		fv.Set("city_"+city, indicator(req.City == city))
	}

	for _, cat := range categoricals {
		got := cat.pick(req)
		for _, v := range cat.values {
			fv.Set(cat.name+"_"+v, indicator(got == v))
		}
	}

	return fv
}

// pricePerSqmProxy оценка цены за метр от городской средней с поправками
// на возраст и размер. Это входной признак модели, не итоговая цена.
func pricePerSqmProxy(stats CityStats, yearBuilt int, area float64) float64 {
	proxy := stats.PricePerSqmMean

	switch {
	case yearBuilt >= 2015:
		proxy *= 1.15
	case yearBuilt >= 2010:
		proxy *= 1.10
	case yearBuilt >= 2000:
		proxy *= 1.05
	case yearBuilt < 1990:
		proxy *= 0.90
	}

	switch {
	case area > 80:
		proxy *= 1.05
	case area < 40:
		proxy *= 0.95
	}

	return proxy
}

func indicator(cond bool) float64 {
	if cond {
		return 1
	}
	return 0
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
