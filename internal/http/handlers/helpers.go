package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"jobsite/internal/common"
	"jobsite/internal/domain/policy"
	"jobsite/internal/http/middleware"
)

const APIPrefix = "/api/v1"

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return common.NewValidationError("request body too large", nil)
		case errors.Is(err, io.EOF):
			return common.NewValidationError("request body is empty", nil)
		default:
			return common.NewValidationError("invalid json", map[string]string{"body": err.Error()})
		}
	}
	return nil
}

// pathSegments splits the path below the API prefix.
func pathSegments(r *http.Request) []string {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, APIPrefix), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// uidFromPath returns the path segment at index, e.g. 1 for /jobs/{uid}.
func uidFromPath(r *http.Request, index int) (string, error) {
	segments := pathSegments(r)
	if index >= len(segments) || strings.TrimSpace(segments[index]) == "" {
		return "", common.NewError(common.CodeNotFound, "not found", nil)
	}
	return segments[index], nil
}

func actorFrom(r *http.Request) policy.Actor {
	actor, _ := middleware.ActorFromContext(r.Context())
	return actor
}

func queryInt(r *http.Request, key string, fallback int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func queryBool(r *http.Request, key string) bool {
	parsed, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && parsed
}

// queryList accepts repeated keys and comma separated values.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, value := range r.URL.Query()[key] {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

type detailResponse struct {
	Detail string `json:"detail"`
}
