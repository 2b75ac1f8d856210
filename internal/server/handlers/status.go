package handlers

import (
	"context"
	"net/http"

	"github.com/uftp-network/uftp-engine/internal/server/response"
)

// MessageCounter reports the number of stored messages per direction.
type MessageCounter interface {
	Counts(ctx context.Context) (map[string]int64, error)
}

type StatusResponse struct {
	Participant string           `json:"participant" example:"dso.example.com(DSO)"`
	Messages    map[string]int64 `json:"messages"`
}

// HandleStatus godoc
//
//	@Summary		Get message counts
//	@Description	Returns the participant this server acts as and the number of stored messages per direction (incoming, outgoing).
//	@Tags			UFTP
//	@Produce		json
//	@Success		200	{object}	StatusResponse			"Status"
//	@Failure		500	{object}	response.ErrorResponse	"Internal error"
//	@Router			/api/v1/status [get]
func HandleStatus(participant string, counter MessageCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := counter.Counts(r.Context())
		if err != nil {
			response.RespondWithError(w, r, err)
			return
		}
		response.RespondWithJSONPayload(w, http.StatusOK, StatusResponse{
			Participant: participant,
			Messages:    counts,
		})
	}
}
