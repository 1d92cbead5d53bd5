package controllers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/angelmondragon/chatstore-backend/api/responses"
	"github.com/angelmondragon/chatstore-backend/api/validators"
	"github.com/angelmondragon/chatstore-backend/internal/bot"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

const webhookSecretHeader = "X-Webhook-Secret"

// UpdateHandler is the slice of the bot router the webhook needs.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd bot.Update) error
}

type webhookSender struct {
	ID          int64   `json:"id" validate:"required"`
	DisplayName string  `json:"display_name"`
	Handle      *string `json:"handle"`
}

// webhookRequest is the normalized update the chat platform posts. Exactly
// one of text, button_id or photo_ref is expected to be set.
type webhookRequest struct {
	UpdateID int64         `json:"update_id" validate:"required"`
	From     webhookSender `json:"from" validate:"required"`
	Text     string        `json:"text"`
	ButtonID string        `json:"button_id"`
	PhotoRef string        `json:"photo_ref"`
}

// Webhook ingests one chat update. The platform retries on non-2xx, so
// business failures inside the router never surface here; only transport
// and infrastructure problems return errors.
func Webhook(handler UpdateHandler, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if handler == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "update handler unavailable"))
			return
		}

		provided := r.Header.Get(webhookSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "webhook secret mismatch"))
			return
		}

		var req webhookRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := handler.HandleUpdate(ctx, toUpdate(req)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func toUpdate(req webhookRequest) bot.Update {
	upd := bot.Update{
		UpdateID:    req.UpdateID,
		PlatformID:  req.From.ID,
		DisplayName: req.From.DisplayName,
		Handle:      req.From.Handle,
	}
	switch {
	case req.ButtonID != "":
		upd.Kind = bot.UpdateKindButton
		upd.ButtonID = req.ButtonID
	case req.PhotoRef != "":
		upd.Kind = bot.UpdateKindPhoto
		upd.FileRef = req.PhotoRef
	default:
		upd.Kind = bot.UpdateKindText
		upd.Text = req.Text
	}
	return upd
}
