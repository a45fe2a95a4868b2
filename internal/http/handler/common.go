package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var validate = newValidator()

// newValidator reports fields by their json name
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			errs[fe.Field()] = formatValidationError(fe)
		}
	}
	respondFieldErrors(w, errs)
}

// respondFieldErrors sends a 400 with the given errors map
func respondFieldErrors(w http.ResponseWriter, errs map[string]string) {
	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errs,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "lt":
		return fmt.Sprintf("Ensure this value is less than %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	default:
		return domain.ErrorTypeInternal
	}
}

// handleServiceError maps a service error onto a response. Unknown errors
// are logged and answered with a generic 500.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error, operation string) {
	if vErr, ok := service.AsValidationError(err); ok {
		respondFieldErrors(w, vErr.ErrorMap())
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, reasonOf(err, "You do not have permission to perform this action."))
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, reasonOf(err, "Not found."))
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, reasonOf(err, "Conflict."))
	case errors.Is(err, service.ErrMethodNotAllowed):
		respondWithError(w, http.StatusBadRequest, reasonOf(err, "Method not allowed."))
	default:
		logger.Error("failed to "+operation, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// reasonOf returns the reason attached to err, or fallback for bare sentinels
func reasonOf(err error, fallback string) string {
	var reasonErr *service.ReasonError
	if errors.As(err, &reasonErr) && reasonErr.Reason != "" {
		return reasonErr.Reason
	}
	return fallback
}

// bodyError describes a request body that could not be decoded
type bodyError struct {
	Field   string
	Message string
}

func (e *bodyError) Error() string {
	return e.Message
}

// decodeBody decodes a JSON body into dst
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return &bodyError{Message: "Request body is required"}
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &bodyError{Field: typeErr.Field, Message: "Incorrect type. Expected " + typeErr.Type.String() + "."}
		}
		return &bodyError{Message: "Invalid JSON body"}
	}
	return nil
}

// respondDecodeError reports a decode failure, as a field error when the
// offending field is known
func respondDecodeError(w http.ResponseWriter, err error) {
	var bErr *bodyError
	if errors.As(err, &bErr) && bErr.Field != "" {
		respondFieldErrors(w, map[string]string{bErr.Field: bErr.Message})
		return
	}
	respondWithError(w, http.StatusBadRequest, err.Error())
}

// decodePayload decodes a JSON object keeping every key, for endpoints that
// reject unknown keys themselves
func decodePayload(r *http.Request) (map[string]any, error) {
	var payload map[string]any
	if err := decodeBody(r, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

// parseID parses a positive integer URL parameter
func parseID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryParser collects parse errors of optional query parameters as field
// errors
type queryParser struct {
	values url.Values
	errs   map[string]string
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query(), errs: map[string]string{}}
}

func (p *queryParser) uint(name string) *uint {
	raw := strings.TrimSpace(p.values.Get(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.errs[name] = "A valid integer is required."
		return nil
	}
	out := uint(v)
	return &out
}

func (p *queryParser) int(name string) *int {
	raw := strings.TrimSpace(p.values.Get(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs[name] = "A valid integer is required."
		return nil
	}
	return &v
}

func (p *queryParser) float(name string) *float64 {
	raw := strings.TrimSpace(p.values.Get(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs[name] = "A valid number is required."
		return nil
	}
	return &v
}

func (p *queryParser) string(name string) string {
	return strings.TrimSpace(p.values.Get(name))
}

// pagination reads page and page_size. page_size is capped at maxPageSize.
func (p *queryParser) pagination() (int, int) {
	page := 1
	if v := p.int("page"); v != nil {
		if *v < 1 {
			p.errs["page"] = "Invalid page."
		} else {
			page = *v
		}
	}
	pageSize := defaultPageSize
	if v := p.int("page_size"); v != nil && *v > 0 {
		pageSize = min(*v, maxPageSize)
	}
	return page, pageSize
}

func (p *queryParser) valid() bool {
	return len(p.errs) == 0
}

// newPaginatedResponse builds the count/next/previous envelope. Links keep
// the request's other query parameters.
func newPaginatedResponse(r *http.Request, total int64, page, pageSize int, results interface{}) domain.PaginatedResponse {
	link := func(target int) *string {
		u := *r.URL
		q := u.Query()
		if target == 1 {
			q.Del("page")
		} else {
			q.Set("page", strconv.Itoa(target))
		}
		u.RawQuery = q.Encode()
		s := u.RequestURI()
		return &s
	}

	resp := domain.PaginatedResponse{Count: total, Results: results}
	if int64(page*pageSize) < total {
		resp.Next = link(page + 1)
	}
	if page > 1 {
		resp.Previous = link(page - 1)
	}
	return resp
}

// pageOutOfRange reports whether page lies beyond the last page
func pageOutOfRange(total int64, page, pageSize int) bool {
	if page == 1 {
		return false
	}
	return int64((page-1)*pageSize) >= total
}
