package delivery

import (
	"net/http"
	"strings"
)

var destinationMissingMarkers = []string{
	"chat not found",
	"chat_not_found",
	"bot not added to the group",
}

// Classify maps a failure to DestinationNotConfigured only for a 400 reply naming
// a missing chat. Everything else, timeouts included, is Transient.
func Classify(f Failure) FailureKind {
	if f.HTTPStatus != http.StatusBadRequest {
		return FailureTransient
	}
	msg := strings.ToLower(f.ProviderMessage)
	for _, marker := range destinationMissingMarkers {
		if strings.Contains(msg, marker) {
			return FailureDestinationNotConfigured
		}
	}
	return FailureTransient
}
