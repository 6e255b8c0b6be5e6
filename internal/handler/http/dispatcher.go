package http

import (
	"net/http"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/utils"
)

type dispatcherResponse struct {
	Pending           int               `json:"pending"`
	Dropped           uint64            `json:"dropped"`
	DroppedPerAccount map[string]uint64 `json:"dropped_per_account"`
	Lost              uint64            `json:"lost"`
	LostPerAccount    map[string]uint64 `json:"lost_per_account"`
}

func (h *Handler) getDispatcherStats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.DroppedEvents()

	response := dispatcherResponse{
		Pending:           stats.Pending,
		Dropped:           stats.Dropped,
		DroppedPerAccount: stats.DroppedPerAccount,
		Lost:              stats.Lost,
		LostPerAccount:    stats.LostPerAccount,
	}
	if response.DroppedPerAccount == nil {
		response.DroppedPerAccount = map[string]uint64{}
	}
	if response.LostPerAccount == nil {
		response.LostPerAccount = map[string]uint64{}
	}

	if _, err := utils.WriteJSON(w, response, http.StatusOK); err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.getDispatcherStats").Msg("error writing response")
	}
}
