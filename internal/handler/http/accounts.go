package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/service"
	"github.com/MKhiriev/go-multimatrix/internal/utils"
	"github.com/MKhiriev/go-multimatrix/models"
)

type accountResponse struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Homeserver string `json:"homeserver"`
	DeviceID   string `json:"device_id"`
	Status     string `json:"status"`
}

func newAccountResponse(account models.Account) accountResponse {
	return accountResponse{
		ID:         account.UserID,
		Label:      account.Label,
		Homeserver: account.Homeserver,
		DeviceID:   account.DeviceID,
		Status:     account.Status.String(),
	}
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	accounts := h.engine.Accounts()
	response := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		response = append(response, newAccountResponse(account))
	}

	if _, err := utils.WriteJSON(w, response, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.listAccounts").Msg("error writing response")
	}
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	accountID := chi.URLParam(r, "accountID")

	for _, account := range h.engine.Accounts() {
		if account.UserID == accountID {
			if _, err := utils.WriteJSON(w, newAccountResponse(account), http.StatusOK); err != nil {
				log.Err(err).Str("func", "*Handler.getAccount").Msg("error writing response")
			}
			return
		}
	}

	writeError(w, r, fmt.Errorf("%w: %s", service.ErrUnknownAccount, accountID))
}
