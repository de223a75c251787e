package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"

	"github.com/gorilla/mux"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeStatus(w http.ResponseWriter, status int, code, message string) {
	respond(w, status, errorBody{Code: code, Message: message})
}

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindBusinessRule:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func asDomain(err error) (*domain.DomainError, bool) {
	var de *domain.DomainError
	ok := errors.As(err, &de)
	return de, ok
}

func writeError(w http.ResponseWriter, err error) {
	de, ok := asDomain(err)
	if !ok {
		logger.Error("Unhandled error", "error", err)
		writeStatus(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	status := statusFor(de.Kind)
	if status == http.StatusInternalServerError {
		logger.Error("Consistency fault", "code", de.Code, "error", err)
	}
	writeStatus(w, status, de.Code, err.Error())
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int32, error) {
	return parseID(mux.Vars(r)["id"])
}

func parseID(s string) (int32, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid id %q", s)
	}
	return int32(id), nil
}

// queryID reads an optional positive id from the query string.
func queryID(r *http.Request, key string) (*int32, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw)
	if err != nil {
		return nil, domain.Validationf("invalid %s %q", key, raw)
	}
	return &id, nil
}

func queryInt(r *http.Request, key string) (*int32, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, domain.Validationf("invalid %s %q", key, raw)
	}
	v := int32(n)
	return &v, nil
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

const dateLayout = "2006-01-02"

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// in reinterprets the calendar day at midnight in loc.
func (d Date) in(loc *time.Location) time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (h *Handler) queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, h.loc)
	if err != nil {
		return nil, domain.Validationf("invalid %s %q, expected YYYY-MM-DD", key, raw)
	}
	return &t, nil
}
