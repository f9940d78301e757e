package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"jobsite/internal/common"
)

// ErrorCollector counts error responses by code.
type ErrorCollector interface {
	IncErrorCode(code common.Code)
}

var errorCollector atomic.Pointer[collectorHolder]

type collectorHolder struct {
	collector ErrorCollector
}

func SetErrorCollector(collector ErrorCollector) {
	errorCollector.Store(&collectorHolder{collector: collector})
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    common.Code       `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("response encode failed", slog.String("error", err.Error()))
	}
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes err as the standard error envelope. Causes of non-domain
// errors are logged, never serialized.
func Error(w http.ResponseWriter, err error) {
	code := common.CodeOf(err)
	if code == "" {
		code = common.CodeInternal
	}
	payload := errorPayload{Code: code, Message: "internal error"}
	if appErr, ok := asAppError(err); ok && code != common.CodeInternal {
		payload.Message = appErr.Message
		payload.Fields = appErr.Fields
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		slog.Default().Error("request failed", slog.String("code", string(code)), slog.Any("error", err))
	}
	if holder := errorCollector.Load(); holder != nil && holder.collector != nil {
		holder.collector.IncErrorCode(code)
	}
	JSON(w, status, errorBody{Error: payload})
}

func StatusFor(code common.Code) int {
	switch code {
	case common.CodeUnauthorized:
		return http.StatusUnauthorized
	case common.CodeForbidden:
		return http.StatusForbidden
	case common.CodeValidation:
		return http.StatusBadRequest
	case common.CodeNotFound:
		return http.StatusNotFound
	case common.CodeConflict:
		return http.StatusConflict
	case common.CodeRateLimited:
		return http.StatusTooManyRequests
	case common.CodeDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func asAppError(err error) (*common.Error, bool) {
	var appErr *common.Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
