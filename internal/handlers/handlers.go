package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/internal/services"
	xhttp "github.com/nimasrn/collections-ledger/pkg/http"
	"github.com/nimasrn/collections-ledger/pkg/logger"
)

type errorResponse struct {
	Error      string             `json:"error"`
	Field      string             `json:"field,omitempty"`
	MissingIDs []int64            `json:"missing_ids,omitempty"`
	Fields     []model.FieldError `json:"fields,omitempty"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg})
}

// writeServiceError maps the service error taxonomy onto status codes.
// Anything unclassified is a 500 with a generic message.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var (
		ve *services.ValidationError
		nf *services.NotFoundError
		ce *services.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(ctx, xhttp.StatusBadRequest, errorResponse{
			Error:      ve.Error(),
			Field:      ve.Field,
			MissingIDs: ve.MissingIDs,
			Fields:     ve.Fields,
		})
	case errors.As(err, &nf):
		writeError(ctx, xhttp.StatusNotFound, nf.Error())
	case errors.As(err, &ce):
		writeError(ctx, xhttp.StatusConflict, "conflicting request, retry")
	default:
		logger.Error("request failed",
			"path", string(ctx.Path()),
			"request_id", xhttp.RequestID(ctx),
			"error", err)
		writeError(ctx, xhttp.StatusInternalServerError, xhttp.StatusText(xhttp.StatusInternalServerError))
	}
}

// pathInt64 reads a positive integer route parameter.
func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	raw := fmt.Sprint(ctx.UserValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

func pathString(ctx *xhttp.RequestCtx, name string) string {
	if v, ok := ctx.UserValue(name).(string); ok {
		return v
	}
	return ""
}

func paramInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	idStr := ctx.QueryArgs().Peek(name)
	return strconv.ParseInt(string(idStr), 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
