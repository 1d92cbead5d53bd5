package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/chatstore-backend/internal/bot/session"
	"github.com/angelmondragon/chatstore-backend/internal/cart"
	"github.com/angelmondragon/chatstore-backend/internal/catalog"
	"github.com/angelmondragon/chatstore-backend/internal/checkout"
	"github.com/angelmondragon/chatstore-backend/internal/delivery"
	"github.com/angelmondragon/chatstore-backend/internal/ledger"
	"github.com/angelmondragon/chatstore-backend/internal/payments"
	"github.com/angelmondragon/chatstore-backend/internal/settings"
	"github.com/angelmondragon/chatstore-backend/internal/tickets"
	"github.com/angelmondragon/chatstore-backend/internal/users"
	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
	"github.com/angelmondragon/chatstore-backend/pkg/redis"
	"github.com/angelmondragon/chatstore-backend/pkg/security"
)

// minSearchText is the shortest top-level free text treated as a catalog
// search instead of noise.
const minSearchText = 2

// dedupeStore is the slice of the redis client used for update replay
// protection.
type dedupeStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// Deps collects every collaborator the router dispatches into.
type Deps struct {
	Users     users.Service
	Catalog   catalog.Service
	Cart      cart.Service
	Checkout  checkout.Service
	Payments  payments.Service
	Tickets   tickets.Service
	Wallet    ledger.Service
	Settings  settings.Service
	Delivery  delivery.Service
	Sessions  *session.Manager
	Dedupe    dedupeStore
	Presenter Presenter
	Bot       config.BotConfig
	Metrics   *metrics.BotMetrics
	Logg      *logger.Logger
}

// Router is the dialogue state machine entry point. Buttons dispatch by id
// regardless of the session step; free text and photos are consumed by the
// step the user is parked on; leftover text falls through to catalog search.
type Router struct {
	deps Deps
}

// NewRouter validates and wires the router dependencies.
func NewRouter(deps Deps) (*Router, error) {
	switch {
	case deps.Users == nil:
		return nil, fmt.Errorf("users service required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("catalog service required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart service required")
	case deps.Checkout == nil:
		return nil, fmt.Errorf("checkout service required")
	case deps.Payments == nil:
		return nil, fmt.Errorf("payments service required")
	case deps.Tickets == nil:
		return nil, fmt.Errorf("tickets service required")
	case deps.Wallet == nil:
		return nil, fmt.Errorf("ledger service required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("settings service required")
	case deps.Delivery == nil:
		return nil, fmt.Errorf("delivery service required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("session manager required")
	case deps.Dedupe == nil:
		return nil, fmt.Errorf("dedupe store required")
	case deps.Presenter == nil:
		return nil, fmt.Errorf("presenter required")
	}
	return &Router{deps: deps}, nil
}

// HandleUpdate processes one inbound update end to end. Business failures are
// presented to the user and swallowed; only infrastructure errors propagate.
func (r *Router) HandleUpdate(ctx context.Context, upd Update) error {
	started := time.Now()
	r.deps.Metrics.IncUpdate(string(upd.Kind))
	defer func() {
		r.deps.Metrics.ObserveHandler(string(upd.Kind), time.Since(started))
	}()

	if r.deps.Logg != nil {
		ctx = r.deps.Logg.WithUserID(ctx, upd.PlatformID)
		ctx = r.deps.Logg.WithUpdateID(ctx, strconv.FormatInt(upd.UpdateID, 10))
	}

	if upd.UpdateID != 0 {
		fresh, err := r.deps.Dedupe.SetNX(ctx, redis.UpdateDedupeKey(upd.UpdateID), "1", r.deps.Bot.UpdateDedupeTTL)
		if err != nil {
			return err
		}
		if !fresh {
			return nil
		}
	}

	user, err := r.deps.Users.EnsureUser(ctx, users.EnsureUserInput{
		PlatformID:         upd.PlatformID,
		DisplayName:        upd.DisplayName,
		Handle:             upd.Handle,
		ReferrerPlatformID: referrerFromStart(upd),
	})
	if err != nil {
		return err
	}
	if user.Banned {
		return nil
	}

	sess, err := r.deps.Sessions.Get(ctx, upd.PlatformID)
	if err != nil {
		return err
	}
	if r.deps.Logg != nil && sess.Step != session.StepNone {
		ctx = r.deps.Logg.WithStep(ctx, string(sess.Step))
	}

	var handlerErr error
	switch upd.Kind {
	case UpdateKindButton:
		handlerErr = r.handleButton(ctx, upd, user, sess)
	case UpdateKindText:
		handlerErr = r.handleText(ctx, upd, user, sess)
	case UpdateKindPhoto:
		handlerErr = r.handlePhoto(ctx, upd, user, sess)
	default:
		return nil
	}
	return r.present(ctx, upd.PlatformID, handlerErr)
}

// handleButton routes by button id. A button tap always interrupts whatever
// step the user was parked on; handlers that start a new dialogue set their
// own step afterwards.
func (r *Router) handleButton(ctx context.Context, upd Update, user *models.User, sess *session.Session) error {
	action, args := splitButton(upd.ButtonID)
	sess.LeaveStep()

	var err error
	if strings.HasPrefix(action, "admin_") || isReviewAction(action) {
		err = r.handleAdminButton(ctx, upd, user, sess, action, args)
	} else {
		err = r.handleUserButton(ctx, upd, user, sess, action, args)
	}
	if err != nil {
		// The step was already dropped; persist that so a failed action
		// does not leave the user trapped in a stale dialogue.
		if saveErr := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); saveErr != nil {
			return saveErr
		}
		return err
	}
	return r.deps.Sessions.Save(ctx, upd.PlatformID, sess)
}

func (r *Router) handleText(ctx context.Context, upd Update, user *models.User, sess *session.Session) error {
	text := strings.TrimSpace(upd.Text)

	if strings.HasPrefix(text, "/admin") {
		return r.handleAdminElevation(ctx, upd, sess, text)
	}
	if strings.HasPrefix(text, "/order") {
		return r.handleAdminOrderStatus(ctx, upd, sess, text)
	}
	if strings.HasPrefix(text, "/start") {
		sess.LeaveStep()
		if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
			return err
		}
		return r.showCatalog(ctx, upd.PlatformID)
	}

	if sess.Step != session.StepNone {
		return r.handleStepText(ctx, upd, user, sess, text)
	}

	// Spare free text doubles as catalog search.
	if len([]rune(text)) >= minSearchText {
		products, err := r.deps.Catalog.Search(ctx, text)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowProducts(ctx, upd.PlatformID, products)
	}
	return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Use the menu below or type a product name to search.")
}

func (r *Router) handlePhoto(ctx context.Context, upd Update, user *models.User, sess *session.Session) error {
	switch sess.Step {
	case session.StepAwaitingPaymentProof:
		return r.stepPaymentProof(ctx, upd, user, sess)
	case session.StepAwaitingTopUpProof:
		return r.stepTopUpProof(ctx, upd, user, sess)
	default:
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "I was not expecting a photo right now.")
	}
}

// handleAdminElevation verifies "/admin <passphrase>" against the stored
// argon2id hash and elevates the session on success.
func (r *Router) handleAdminElevation(ctx context.Context, upd Update, sess *session.Session, text string) error {
	passphrase := strings.TrimSpace(strings.TrimPrefix(text, "/admin"))
	if passphrase == "" {
		return apperrors.New(apperrors.CodeValidation, "usage: /admin <passphrase>")
	}

	hash, err := r.deps.Settings.AdminPassphraseHash(ctx)
	if err != nil {
		return err
	}
	if hash == "" {
		return apperrors.New(apperrors.CodeForbidden, "admin access is not configured")
	}
	ok, err := security.VerifyPassphrase(passphrase, hash)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.CodeForbidden, "wrong passphrase")
	}

	sess.Admin = true
	sess.LeaveStep()
	if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
		return err
	}
	return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Admin mode enabled for this session.")
}

func (r *Router) isAdmin(upd Update, sess *session.Session) bool {
	return sess.Admin || r.deps.Bot.IsAdmin(upd.PlatformID)
}

// present maps business failures onto user-facing messages. Validation-class
// errors leave the session step untouched so the user can simply retry.
func (r *Router) present(ctx context.Context, platformID int64, err error) error {
	if err == nil {
		return nil
	}
	if typed := apperrors.As(err); typed != nil {
		msg := typed.Message()
		if msg == "" {
			msg = apperrors.MetadataFor(typed.Code()).PublicMessage
		}
		return r.deps.Presenter.Notify(ctx, platformID, msg)
	}
	if r.deps.Logg != nil {
		r.deps.Logg.Error(ctx, "update handler failed", err)
	}
	return r.deps.Presenter.Notify(ctx, platformID, "Something went wrong, please try again.")
}

func (r *Router) showCatalog(ctx context.Context, platformID int64) error {
	categories, err := r.deps.Catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	return r.deps.Presenter.ShowCategories(ctx, platformID, categories)
}

// referrerFromStart pulls the referrer platform id out of "/start <id>".
// Binding happens only at first contact; EnsureUser ignores it afterwards.
func referrerFromStart(upd Update) *int64 {
	if upd.Kind != UpdateKindText {
		return nil
	}
	text := strings.TrimSpace(upd.Text)
	if !strings.HasPrefix(text, "/start ") {
		return nil
	}
	raw := strings.TrimSpace(strings.TrimPrefix(text, "/start "))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

func splitButton(buttonID string) (string, []string) {
	parts := strings.Split(buttonID, ":")
	return parts[0], parts[1:]
}

func isReviewAction(action string) bool {
	switch action {
	case "approve_proof", "reject_proof", "approve_topup", "reject_topup":
		return true
	}
	return false
}
