// Package controllers holds the HTTP handlers. Each constructor takes its
// collaborators and returns an http.HandlerFunc.
package controllers

import (
	"errors"
	"net/http"

	"github.com/angelmondragon/rattanstore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
)

var errNotConfigured = errors.New("not configured")

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeInternal, "%s unavailable", name))
}
