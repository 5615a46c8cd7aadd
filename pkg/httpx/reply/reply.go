package reply

import (
	"context"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"estymator/pkg/contextx"
	"estymator/pkg/errcodes"
	"estymator/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SupportID string `json:"supportId"`
}

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// coder реализуется доменной ошибкой (domain.AppError).
type coder interface {
	error
	ErrorCode() errcodes.ErrorCode
}

func OK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

func JSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger(ctx).Error("json.Encode", logx.Error(err))
	}
}

func Error(ctx context.Context, w http.ResponseWriter, err error) {
	logger(ctx).Error("error", logx.Error(err))

	code := errcodes.InternalServerError
	message := "internal server error"

	var c coder
	if errors.As(err, &c) {
		code = c.ErrorCode()
		message = c.Error()
	}

	response := errorResponse{
		Code:      code.String(),
		Message:   message,
		SupportID: supportID(ctx),
	}

	JSON(ctx, w, errcodes.HTTPStatus(code), response)
}

func supportID(ctx context.Context) string {
	traceID, err := contextx.TraceIDFromContext(ctx)
	if err != nil {
		return "unsupported"
	}

	return traceID.String()
}
