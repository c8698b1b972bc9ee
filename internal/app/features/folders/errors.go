package folders

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/folderforge/internal/app/system/dirimport"
	"github.com/dalemusser/folderforge/internal/app/system/editor"
	"github.com/dalemusser/folderforge/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// statusFor maps an editor error to an HTTP status.
func statusFor(err error) int {
	var (
		ve *editor.ValidationError
		le *editor.LoadError
		we *editor.WriteError
	)
	switch {
	case errors.Is(err, editor.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, dirimport.ErrOutsideRoot):
		return http.StatusBadRequest
	case errors.As(err, &ve):
		switch {
		case errors.Is(err, editor.ErrNodeNotFound):
			return http.StatusNotFound
		case errors.Is(err, editor.ErrStaleHistory):
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case errors.As(err, &le), errors.As(err, &we):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError logs err at the level its status deserves and writes the
// JSON error body. Storage details are not returned to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("template_id", templateID(r)),
		zap.Int("status", status),
		zap.Error(err),
	}

	msg := err.Error()
	switch {
	case status >= 500:
		h.logger.Error("folder request failed", fields...)
		switch status {
		case http.StatusBadGateway:
			msg = "storage unavailable"
		case http.StatusServiceUnavailable:
			msg = "editing session closed, retry"
		default:
			msg = "internal error"
		}
	default:
		h.logger.Debug("folder request rejected", fields...)
	}
	jsonutil.Error(w, status, msg)
}
