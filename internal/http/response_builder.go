package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"kharcha/internal/core"
	"kharcha/internal/log"
)

// JSONResponse builds a JSON response with a fluent API.
type JSONResponse struct {
	statusCode int
	headers    map[string]string
	data       any
}

func NewJSONResponse() *JSONResponse {
	return &JSONResponse{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

func (b *JSONResponse) Data(v any) *JSONResponse {
	b.data = v
	return b
}

// Write encodes the payload and sends it. A nil payload sends only the
// status line.
func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.data == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	body, err := json.Marshal(b.data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func ErrorResponse(statusCode int, message string) *JSONResponse {
	return NewJSONResponse().Status(statusCode).Data(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponse {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponse {
	return ErrorResponse(http.StatusNotFound, message)
}

// FromError maps domain errors onto status codes: rejected input is 422, a
// missing record 404 and a failing store 502.
func FromError(err error) *JSONResponse {
	var (
		ve *core.ValidationError
		be *badRequest
		re *core.StoreReadError
		we *core.StoreWriteError
	)
	switch {
	case errors.As(err, &be):
		return BadRequestError(be.msg)
	case errors.As(err, &ve):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Data(errorBody{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("transaction not found")
	case errors.As(err, &re), errors.As(err, &we):
		return ErrorResponse(http.StatusBadGateway, "store unavailable")
	default:
		return ErrorResponse(http.StatusInternalServerError, "internal error")
	}
}

// writeError logs err at a level matching its status and writes the
// mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := FromError(err)
	logger := log.FromContext(r.Context())
	fields := log.NewFields().Add(log.FieldStatusCode, resp.statusCode).WithError(err)
	if resp.statusCode >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields...)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", fields...)
	}
	resp.Write(w)
}
