package entity

import (
	"estymator/internal/domain"
	"estymator/pkg/errcodes"
)

const (
	DefaultYearBuilt = 1990
	DefaultFloor     = 0
)

// ValuationRequest описание оцениваемой квартиры.
type ValuationRequest struct {
	City      string
	District  string
	Area      float64
	Rooms     int
	Floor     int
	YearBuilt int

	Condition    string
	Parking      string
	Finishing    string
	BuildingType string
	Elevator     string
	Balcony      string
	Transport    string
}

// Validate проверяет обязательные поля. Нарушение — ошибка валидации,
// а не молчаливый дефолт.
func (r ValuationRequest) Validate() error {
	if r.City == "" {
		return domain.NewError(errcodes.MissingRequiredField, "city is required")
	}
	if r.Area == 0 {
		return domain.NewError(errcodes.MissingRequiredField, "area is required")
	}
	if r.Area < 0 {
		return domain.NewError(errcodes.InvalidRange, "area must be positive")
	}
	if r.Rooms == 0 {
		return domain.NewError(errcodes.MissingRequiredField, "rooms is required")
	}
	if r.Rooms < 1 {
		return domain.NewError(errcodes.InvalidRange, "rooms must be >= 1")
	}
	return nil
}

// Normalized возвращает копию с заполненными дефолтами опциональных полей.
// Вызывается после Validate: обязательные поля дефолтов не получают.
func (r ValuationRequest) Normalized() ValuationRequest {
	if r.YearBuilt == 0 {
		r.YearBuilt = DefaultYearBuilt
	}
	if r.Floor < 0 {
		r.Floor = DefaultFloor
	}
	return r
}
