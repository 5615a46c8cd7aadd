package errcodes

import "net/http"

// ErrorCode машиночитаемый код ошибки, попадает в тело ответа API.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

const (
	InternalServerError ErrorCode = "InternalServerError"
	TimeoutExceeded     ErrorCode = "TimeoutExceeded"
	ValidationError     ErrorCode = "ValidationError"
	NotFound            ErrorCode = "NotFound"

	MissingRequiredField ErrorCode = "MissingRequiredField"
	InvalidRange         ErrorCode = "InvalidRange"
	InvalidModelVersion  ErrorCode = "InvalidModelVersion"

	ModelLoadError      ErrorCode = "ModelLoadError"
	ModelInferenceError ErrorCode = "ModelInferenceError"
	EnsembleUnavailable ErrorCode = "EnsembleUnavailable"
	CacheError          ErrorCode = "CacheError"
)

// HTTPStatus маппит код ошибки на HTTP статус ответа.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ValidationError, MissingRequiredField, InvalidRange, InvalidModelVersion:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case TimeoutExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
