package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/rattanstore-backend/api/responses"
	"github.com/angelmondragon/rattanstore-backend/api/validators"
	"github.com/angelmondragon/rattanstore-backend/internal/wizard"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
)

type wizardManager interface {
	Start(ctx context.Context, trigger string) wizard.View
	Get(ctx context.Context, id uuid.UUID) (wizard.View, error)
	Search(ctx context.Context, id uuid.UUID) (wizard.View, error)
	Test(ctx context.Context, id uuid.UUID, channelID string) (wizard.View, error)
	Apply(ctx context.Context, id uuid.UUID, ev wizard.Event) (wizard.View, error)
	Dismiss(ctx context.Context, id uuid.UUID) error
}

type channelRequest struct {
	ChannelID string `json:"channelId" validate:"required"`
}

// WizardStart always opens a fresh session at the search step.
func WizardStart(mgr wizardManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			serviceUnavailable(w, r, logg, "channel wizard")
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, mgr.Start(r.Context(), wizard.TriggerOperator))
	}
}

func WizardFetch(mgr wizardManager, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(mgr, logg, func(ctx context.Context, id uuid.UUID, _ *http.Request) (wizard.View, error) {
		return mgr.Get(ctx, id)
	})
}

// WizardSearch polls the bot for chats. Provider failures land in the view's
// stepError, not in the HTTP status.
func WizardSearch(mgr wizardManager, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(mgr, logg, func(ctx context.Context, id uuid.UUID, _ *http.Request) (wizard.View, error) {
		return mgr.Search(ctx, id)
	})
}

// WizardEvent applies an event that carries no payload (skip, back, proceed, done).
func WizardEvent(mgr wizardManager, event func() wizard.Event, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(mgr, logg, func(ctx context.Context, id uuid.UUID, _ *http.Request) (wizard.View, error) {
		return mgr.Apply(ctx, id, event())
	})
}

func WizardSelect(mgr wizardManager, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(mgr, logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (wizard.View, error) {
		var req channelRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return wizard.View{}, err
		}
		return mgr.Apply(ctx, id, wizard.Select(req.ChannelID))
	})
}

// WizardTest sends the test message to one candidate. The outcome is advisory.
func WizardTest(mgr wizardManager, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(mgr, logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (wizard.View, error) {
		var req channelRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return wizard.View{}, err
		}
		return mgr.Test(ctx, id, req.ChannelID)
	})
}

func WizardDismiss(mgr wizardManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			serviceUnavailable(w, r, logg, "channel wizard")
			return
		}
		id, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := mgr.Dismiss(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"dismissed": true})
	}
}

type wizardStepFunc func(ctx context.Context, id uuid.UUID, r *http.Request) (wizard.View, error)

func wizardStep(mgr wizardManager, logg *logger.Logger, step wizardStepFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			serviceUnavailable(w, r, logg, "channel wizard")
			return
		}
		id, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "wizard_session_id", id.String())
		}
		view, err := step(ctx, id, r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
