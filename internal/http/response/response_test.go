package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"jobsite/internal/common"
)

type codeCounter struct {
	mu    sync.Mutex
	codes []common.Code
}

func (c *codeCounter) IncErrorCode(code common.Code) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes = append(c.codes, code)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Error
}

func TestErrorMapsCodesToStatus(t *testing.T) {
	cases := map[common.Code]int{
		common.CodeUnauthorized:      http.StatusUnauthorized,
		common.CodeForbidden:         http.StatusForbidden,
		common.CodeValidation:        http.StatusBadRequest,
		common.CodeNotFound:          http.StatusNotFound,
		common.CodeConflict:          http.StatusConflict,
		common.CodeRateLimited:       http.StatusTooManyRequests,
		common.CodeDependencyFailure: http.StatusBadGateway,
		common.CodeInternal:          http.StatusInternalServerError,
	}
	for code, status := range cases {
		rec := httptest.NewRecorder()
		Error(rec, common.NewError(code, "boom", nil))
		if rec.Code != status {
			t.Fatalf("expected %d for %s, got %d", status, code, rec.Code)
		}
	}
}

func TestErrorWritesFieldsAndHidesInternals(t *testing.T) {
	counter := &codeCounter{}
	SetErrorCollector(counter)
	defer SetErrorCollector(nil)

	rec := httptest.NewRecorder()
	Error(rec, common.NewValidationError("invalid job", map[string]string{"salary_min": "too high"}))
	payload := decodeError(t, rec)
	if payload.Code != common.CodeValidation || payload.Fields["salary_min"] != "too high" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	rec = httptest.NewRecorder()
	Error(rec, errors.New("pq: connection refused"))
	payload = decodeError(t, rec)
	if payload.Code != common.CodeInternal || payload.Message != "internal error" {
		t.Fatalf("expected masked internal error, got %+v", payload)
	}
	if len(counter.codes) != 2 || counter.codes[1] != common.CodeInternal {
		t.Fatalf("expected two counted codes, got %v", counter.codes)
	}
}
