package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-multimatrix/internal/app"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/service"
	"github.com/MKhiriev/go-multimatrix/internal/utils"
)

var errorStatusMap = map[error]int{
	service.ErrUnknownAccount:        http.StatusNotFound,
	service.ErrUnknownRoom:           http.StatusNotFound,
	service.ErrEngineClosed:          http.StatusServiceUnavailable,
	service.ErrVersionIsNotSpecified: http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	logger.FromRequest(r).Warn().Err(err).Int("status", status).Msg("request failed")

	utils.WriteJSON(w, errorResponse{Error: publicMessage(err, status)}, status)
}

// publicMessage hides internal error details behind a fixed message.
func publicMessage(err error, status int) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return app.MsgEngineClosed
	case status >= http.StatusInternalServerError:
		return app.MsgInternalServerError
	default:
		return err.Error()
	}
}
