package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/rattanstore-backend/api/responses"
	"github.com/angelmondragon/rattanstore-backend/internal/delivery"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
)

type chatDiscoverer interface {
	Discover(ctx context.Context) ([]delivery.DiscoveredChat, error)
}

type discoverResponse struct {
	Success bool                      `json:"success"`
	Chats   []delivery.DiscoveredChat `json:"chats"`
	Error   string                    `json:"error,omitempty"`
}

// DiscoverChannels lists chats the bot has seen. A provider failure is
// reported inline with success=false so the operator sees the raw reason.
func DiscoverChannels(discoverer chatDiscoverer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if discoverer == nil {
			serviceUnavailable(w, r, logg, "delivery channel")
			return
		}

		chats, err := discoverer.Discover(r.Context())
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "channels.discover_failed")
			}
			responses.WriteSuccess(w, discoverResponse{Success: false, Chats: []delivery.DiscoveredChat{}, Error: err.Error()})
			return
		}
		if chats == nil {
			chats = []delivery.DiscoveredChat{}
		}
		responses.WriteSuccess(w, discoverResponse{Success: true, Chats: chats})
	}
}
