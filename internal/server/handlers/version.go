package handlers

import (
	"net/http"

	"github.com/uftp-network/uftp-engine/internal/server/response"
)

// HandleVersion godoc
//
//	@Summary		Get version information
//	@Description	Returns the version and build information for the service
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	VersionResponse	"Version information"
//	@Router			/version [get]
func HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	// Pre-create the response to avoid allocating on every request
	resp := VersionResponse{
		Version:   version,
		BuildTime: buildTime,
		GitCommit: gitCommit,
		Service:   "uftp-server",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		response.RespondWithJSONPayload(w, http.StatusOK, resp)
	}
}

type VersionResponse struct {
	Version   string `json:"version" example:"1.0.0"`
	BuildTime string `json:"build_time" example:"2024-01-28T10:00:00Z"`
	GitCommit string `json:"git_commit" example:"a1b2c3d"`
	Service   string `json:"service" example:"uftp-server"`
}
