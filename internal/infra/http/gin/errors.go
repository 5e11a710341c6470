package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/domain/shared/apperr"
)

type violationBody struct {
	Rule    string   `json:"rule"`
	Message string   `json:"message"`
	Dates   []string `json:"dates,omitempty"`
}

// respondError maps an error kind to its status code and writes
// {"error", "kind"} plus violations or conflict details when present.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	body := gin.H{"error": err.Error(), "kind": string(kind)}

	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		violations := make([]violationBody, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			item := violationBody{Rule: v.Rule, Message: v.Message}
			for _, d := range v.Dates {
				item.Dates = append(item.Dates, d.String())
			}
			violations = append(violations, item)
		}
		body["violations"] = violations
	}
	var conflict *apperr.ConflictError
	if errors.As(err, &conflict) && conflict.Actual != "" {
		body["expected"] = conflict.Expected
		body["actual"] = conflict.Actual
	}
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "status", status, "error", err, "path", c.FullPath())
		}
		if kind == apperr.KindInternal {
			body["error"] = "internal error"
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// badRequest reports a body or query that could not be decoded.
func badRequest(c *gin.Context, logger *slog.Logger, rule string, err error) {
	respondError(c, logger, apperr.Invalid(rule, err.Error()))
}
