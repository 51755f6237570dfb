// Package api — configuration endpoint.
package api

import (
	"net/http"

	"github.com/rsampath/quarterlens/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /config.
type ConfigResponse struct {
	Config     *config.Config `json:"config"`
	ConfigFile string         `json:"config_file"` // file the config was read from, empty when defaults
}

// handleGetConfig returns the running configuration. The config carries no
// credentials; nothing is masked.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:     s.cfg,
			ConfigFile: config.ConfigFilePath(),
		},
	})
}
