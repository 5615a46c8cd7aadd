package server

import (
	"time"

	"estymator/internal/domain/entity"
	"estymator/pkg/rest"
)

func newDomainValuationRequest(request rest.ValuationRequest) entity.ValuationRequest {
	return entity.ValuationRequest{
		City:         request.City,
		District:     request.District,
		Area:         request.Area,
		Rooms:        request.Rooms,
		Floor:        request.Floor,
		YearBuilt:    request.Year,
		Condition:    request.Condition,
		Parking:      request.Parking,
		Finishing:    request.Finishing,
		BuildingType: request.BuildingType,
		Elevator:     request.Elevator,
		Balcony:      request.Balcony,
		Transport:    request.Transport,
	}
}

func newRESTValuation(val entity.Valuation) rest.ValuationResponse {
	response := rest.ValuationResponse{
		Price:      val.Price,
		MinPrice:   val.MinPrice,
		MaxPrice:   val.MaxPrice,
		Currency:   val.Currency,
		Method:     val.Method,
		Confidence: val.Confidence,
		Note:       val.Note,
		Timestamp:  val.Timestamp.Format(time.RFC3339),
		Cached:     val.Cached,
	}

	if val.Cached {
		response.CacheTimestamp = val.CacheTimestamp.Format(time.RFC3339)
	}

	return response
}

func newRESTCacheStats(stats entity.CacheStats, version string) rest.CacheStatsResponse {
	return rest.CacheStatsResponse{
		Hits:          stats.Hits,
		Misses:        stats.Misses,
		Errors:        stats.Errors,
		TotalRequests: stats.TotalRequests,
		HitRate:       stats.HitRate,
		MissRate:      stats.MissRate,
		ErrorRate:     stats.ErrorRate,
		ModelVersion:  version,
		CacheEnabled:  stats.Enabled,
		Backend:       stats.Backend,
	}
}
