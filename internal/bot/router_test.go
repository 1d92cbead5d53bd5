package bot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/internal/bot/session"
	"github.com/angelmondragon/chatstore-backend/internal/cart"
	"github.com/angelmondragon/chatstore-backend/internal/catalog"
	"github.com/angelmondragon/chatstore-backend/internal/checkout"
	"github.com/angelmondragon/chatstore-backend/internal/coupons"
	"github.com/angelmondragon/chatstore-backend/internal/delivery"
	"github.com/angelmondragon/chatstore-backend/internal/ledger"
	"github.com/angelmondragon/chatstore-backend/internal/orders"
	"github.com/angelmondragon/chatstore-backend/internal/payments"
	"github.com/angelmondragon/chatstore-backend/internal/rewards"
	"github.com/angelmondragon/chatstore-backend/internal/settings"
	"github.com/angelmondragon/chatstore-backend/internal/tickets"
	"github.com/angelmondragon/chatstore-backend/internal/users"
	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox"
	"github.com/angelmondragon/chatstore-backend/pkg/security"
)

const testPlatformID int64 = 777001

func TestDuplicateUpdateIsIgnored(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "Widget", "10.00", 5, enums.DeliveryTypeManual, nil)

	upd := Update{UpdateID: 1, PlatformID: testPlatformID, DisplayName: "ann", Kind: UpdateKindButton, ButtonID: "catalog"}
	if err := env.router.HandleUpdate(ctx, upd); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := env.router.HandleUpdate(ctx, upd); err != nil {
		t.Fatalf("replayed update: %v", err)
	}
	if env.presenter.categoriesShown != 1 {
		t.Fatalf("replay must be dropped, categories shown %d times", env.presenter.categoriesShown)
	}
}

func TestBannedUserIsSilentlyDropped(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	if err := env.router.HandleUpdate(ctx, Update{UpdateID: 1, PlatformID: testPlatformID, DisplayName: "ann", Kind: UpdateKindButton, ButtonID: "catalog"}); err != nil {
		t.Fatalf("first contact: %v", err)
	}
	if err := env.db.Exec(`UPDATE users SET banned = 1 WHERE platform_id = ?`, testPlatformID).Error; err != nil {
		t.Fatalf("ban user: %v", err)
	}

	if err := env.router.HandleUpdate(ctx, Update{UpdateID: 2, PlatformID: testPlatformID, Kind: UpdateKindButton, ButtonID: "catalog"}); err != nil {
		t.Fatalf("banned update: %v", err)
	}
	if env.presenter.categoriesShown != 1 {
		t.Fatalf("banned user must be ignored, categories shown %d times", env.presenter.categoriesShown)
	}
}

func TestPurchaseFlowThroughUpdates(t *testing.T) {
	env := newBotEnv(t)

	payload := "KEY-0001"
	product := env.seedProduct(t, "License key", "19.99", 5, enums.DeliveryTypeAuto, &payload)
	env.seedCoupon(t, "SAVE10", 10)
	env.creditWallet(t, "50.00")

	env.tap(t, "add:"+product.ID.String())
	env.tap(t, "checkout")
	order := env.presenter.lastOrder
	if order == nil {
		t.Fatal("checkout did not present an order")
	}

	env.tap(t, "coupon:"+order.ID.String())
	env.say(t, "SAVE10")
	if !env.presenter.lastOrder.Discount.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("expected discount 2.00, got %s", env.presenter.lastOrder.Discount)
	}

	env.tap(t, "balance:"+order.ID.String())
	env.tap(t, "confirm:"+order.ID.String())

	final := env.presenter.lastOrder
	if final.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", final.Status)
	}
	if final.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("fully covered order must be paid, got %s", final.PaymentStatus)
	}
	if len(env.transport.delivered) != 1 {
		t.Fatalf("auto item must be delivered after payment, got %d deliveries", len(env.transport.delivered))
	}
	if env.transport.delivered[0].item.Payload != payload {
		t.Fatalf("unexpected delivery payload %q", env.transport.delivered[0].item.Payload)
	}
}

func TestTopLevelTextSearchesCatalog(t *testing.T) {
	env := newBotEnv(t)
	env.seedProduct(t, "Blue Widget", "10.00", 5, enums.DeliveryTypeManual, nil)

	env.say(t, "widget")
	if len(env.presenter.lastProducts) != 1 || env.presenter.lastProducts[0].Name != "Blue Widget" {
		t.Fatalf("expected search hit, got %+v", env.presenter.lastProducts)
	}

	env.say(t, "x")
	if env.presenter.lastNotice == "" {
		t.Fatal("short text must produce a hint, not a search")
	}
}

func TestValidationKeepsStepForRetry(t *testing.T) {
	env := newBotEnv(t)

	env.tap(t, "topup")
	env.say(t, "not-a-number")
	env.say(t, "25.00")

	var count int64
	if err := env.db.Model(&models.TopUp{}).Count(&count).Error; err != nil {
		t.Fatalf("count topups: %v", err)
	}
	if count != 1 {
		t.Fatalf("retry after bad amount must create the top-up, got %d", count)
	}
}

func TestTicketDialogueTwoSteps(t *testing.T) {
	env := newBotEnv(t)

	env.tap(t, "ticket_new")
	env.say(t, "Order missing")
	env.say(t, "I paid but nothing arrived")

	var count int64
	if err := env.db.Model(&models.Ticket{}).Count(&count).Error; err != nil {
		t.Fatalf("count tickets: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one ticket, got %d", count)
	}
}

func TestAdminElevationAndProofReview(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	hash, err := security.HashPassphrase("s3cret", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash passphrase: %v", err)
	}
	if err := env.settings.SetAdminPassphraseHash(ctx, hash); err != nil {
		t.Fatalf("store hash: %v", err)
	}

	// A non-admin cannot open the queue.
	env.tap(t, "admin_queue")
	if env.presenter.reviewQueueShown != 0 {
		t.Fatal("review queue must be admin only")
	}

	env.say(t, "/admin wrong")
	env.say(t, "/admin s3cret")
	env.tap(t, "admin_queue")
	if env.presenter.reviewQueueShown != 1 {
		t.Fatal("elevated session must reach the review queue")
	}

	// Wire a confirmed unpaid order with a submitted proof, then approve it.
	product := env.seedProduct(t, "Hoodie", "30.00", 5, enums.DeliveryTypeManual, nil)
	env.tap(t, "add:"+product.ID.String())
	env.tap(t, "checkout")
	order := env.presenter.lastOrder
	env.tap(t, "confirm:"+order.ID.String())

	user, err := env.usersSvc.GetByPlatformID(ctx, testPlatformID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	proof, err := env.payments.SubmitProof(ctx, payments.SubmitProofInput{
		UserID:      user.ID,
		OrderID:     order.ID,
		ArtifactRef: "file/receipt.jpg",
	})
	if err != nil {
		t.Fatalf("submit proof: %v", err)
	}

	env.tap(t, "approve_proof:"+proof.ID.String())

	stored, err := env.checkout.Get(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if stored.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("approved proof must mark order paid, got %s", stored.PaymentStatus)
	}
}

func TestReplayedApproveTapDeliversOnce(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	hash, err := security.HashPassphrase("s3cret", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash passphrase: %v", err)
	}
	if err := env.settings.SetAdminPassphraseHash(ctx, hash); err != nil {
		t.Fatalf("store hash: %v", err)
	}
	env.say(t, "/admin s3cret")

	payload := "KEY-0042"
	product := env.seedProduct(t, "License key", "30.00", 5, enums.DeliveryTypeAuto, &payload)
	env.tap(t, "add:"+product.ID.String())
	env.tap(t, "checkout")
	order := env.presenter.lastOrder
	env.tap(t, "confirm:"+order.ID.String())

	user, err := env.usersSvc.GetByPlatformID(ctx, testPlatformID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	proof, err := env.payments.SubmitProof(ctx, payments.SubmitProofInput{
		UserID:      user.ID,
		OrderID:     order.ID,
		ArtifactRef: "file/receipt.jpg",
	})
	if err != nil {
		t.Fatalf("submit proof: %v", err)
	}

	env.tap(t, "approve_proof:"+proof.ID.String())
	env.tap(t, "approve_proof:"+proof.ID.String())

	if len(env.transport.delivered) != 1 {
		t.Fatalf("replayed approval must not ship again, got %d deliveries", len(env.transport.delivered))
	}
	var approved int64
	if err := env.db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventProofApproved).
		Count(&approved).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if approved != 1 {
		t.Fatalf("expected 1 proof.approved event, got %d", approved)
	}
}

func TestAdminOrderStatusCommand(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	product := env.seedProduct(t, "Hoodie", "30.00", 5, enums.DeliveryTypeManual, nil)
	env.tap(t, "add:"+product.ID.String())
	env.tap(t, "checkout")
	order := env.presenter.lastOrder
	env.tap(t, "confirm:"+order.ID.String())

	user, err := env.usersSvc.GetByPlatformID(ctx, testPlatformID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}

	// Not elevated yet: the command must be refused.
	env.say(t, "/order "+order.ID.String()+" processing")
	stored, err := env.checkout.Get(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if stored.Status != enums.OrderStatusConfirmed {
		t.Fatalf("non-admin command must not move the order, got %s", stored.Status)
	}

	hash, err := security.HashPassphrase("s3cret", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash passphrase: %v", err)
	}
	if err := env.settings.SetAdminPassphraseHash(ctx, hash); err != nil {
		t.Fatalf("store hash: %v", err)
	}
	env.say(t, "/admin s3cret")

	env.say(t, "/order "+order.ID.String()+" processing")
	env.say(t, "/order "+order.ID.String()+" shipped")

	stored, err = env.checkout.Get(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if stored.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped order, got %s", stored.Status)
	}
}

type botEnv struct {
	db        *gorm.DB
	router    *Router
	presenter *fakePresenter
	transport *fakeTransport
	settings  settings.Service
	payments  payments.Service
	checkout  checkout.Service
	usersSvc  users.Service
	updateSeq int64
}

func (e *botEnv) tap(t *testing.T, buttonID string) {
	t.Helper()
	e.updateSeq++
	err := e.router.HandleUpdate(context.Background(), Update{
		UpdateID:    e.updateSeq,
		PlatformID:  testPlatformID,
		DisplayName: "ann",
		Kind:        UpdateKindButton,
		ButtonID:    buttonID,
	})
	if err != nil {
		t.Fatalf("tap %q: %v", buttonID, err)
	}
}

func (e *botEnv) say(t *testing.T, text string) {
	t.Helper()
	e.updateSeq++
	err := e.router.HandleUpdate(context.Background(), Update{
		UpdateID:    e.updateSeq,
		PlatformID:  testPlatformID,
		DisplayName: "ann",
		Kind:        UpdateKindText,
		Text:        text,
	})
	if err != nil {
		t.Fatalf("say %q: %v", text, err)
	}
}

func (e *botEnv) seedProduct(t *testing.T, name, price string, stock int, deliveryType enums.DeliveryType, payload *string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:              uuid.New(),
		CategoryID:      uuid.New(),
		Name:            name,
		Price:           decimal.RequireFromString(price),
		Stock:           stock,
		DeliveryType:    deliveryType,
		DeliveryPayload: payload,
		Active:          true,
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (e *botEnv) seedCoupon(t *testing.T, code string, percent int) {
	t.Helper()
	err := e.db.Create(&models.Coupon{
		Code:            code,
		DiscountPercent: percent,
		MaxUses:         models.UnlimitedUses,
		Active:          true,
	}).Error
	if err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
}

// creditWallet gives the test user a balance; first contact happens here if
// the user does not exist yet.
func (e *botEnv) creditWallet(t *testing.T, amount string) {
	t.Helper()
	e.tap(t, "cart")
	err := e.db.Exec(`UPDATE users SET balance = ? WHERE platform_id = ?`,
		decimal.RequireFromString(amount), testPlatformID).Error
	if err != nil {
		t.Fatalf("credit wallet: %v", err)
	}
}

func newBotEnv(t *testing.T) *botEnv {
	t.Helper()
	db := newTestDB(t)

	usersSvc, err := users.NewService(users.NewRepository(db))
	if err != nil {
		t.Fatalf("users service: %v", err)
	}
	catalogRepo := catalog.NewRepository(db)
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	cartRepo := cart.NewRepository(db)
	cartSvc, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	couponsSvc, err := coupons.NewService(coupons.NewRepository(db))
	if err != nil {
		t.Fatalf("coupons service: %v", err)
	}
	wallet, err := ledger.NewService(ledger.NewRepository(db))
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	settingsSvc, err := settings.NewService(settings.NewRepository(db), config.StoreConfig{
		MinOrderSubtotal: "0",
		PointsPerOrder:   1,
	})
	if err != nil {
		t.Fatalf("settings service: %v", err)
	}
	rewardsSvc, err := rewards.NewService(users.NewRepository(db), settingsSvc)
	if err != nil {
		t.Fatalf("rewards service: %v", err)
	}
	events := outbox.NewService(outbox.NewRepository(db), nil)
	runner := gormTxRunner{db: db}
	ordersRepo := orders.NewRepository(db)

	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Orders:   ordersRepo,
		Cart:     cartSvc,
		CartRepo: cartRepo,
		Catalog:  catalogRepo,
		Coupons:  couponsSvc,
		Wallet:   wallet,
		Rewards:  rewardsSvc,
		Settings: settingsSvc,
		Events:   events,
		Tx:       runner,
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	paymentsSvc, err := payments.NewService(payments.NewRepository(db), ordersRepo, wallet, events, runner, nil)
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}
	ticketsSvc, err := tickets.NewService(tickets.NewRepository(db), events, runner)
	if err != nil {
		t.Fatalf("tickets service: %v", err)
	}
	transport := &fakeTransport{}
	deliverySvc, err := delivery.NewService(ordersRepo, catalogRepo, users.NewRepository(db), transport, events, runner, nil)
	if err != nil {
		t.Fatalf("delivery service: %v", err)
	}
	sessions, err := session.NewManager(newFakeKV(), 30*time.Minute)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	presenter := &fakePresenter{}
	router, err := NewRouter(Deps{
		Users:     usersSvc,
		Catalog:   catalogSvc,
		Cart:      cartSvc,
		Checkout:  checkoutSvc,
		Payments:  paymentsSvc,
		Tickets:   ticketsSvc,
		Wallet:    wallet,
		Settings:  settingsSvc,
		Delivery:  deliverySvc,
		Sessions:  sessions,
		Dedupe:    newFakeKV(),
		Presenter: presenter,
		Bot:       config.BotConfig{UpdateDedupeTTL: 10 * time.Minute},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &botEnv{
		db:        db,
		router:    router,
		presenter: presenter,
		transport: transport,
		settings:  settingsSvc,
		payments:  paymentsSvc,
		checkout:  checkoutSvc,
		usersSvc:  usersSvc,
	}
}

type fakePresenter struct {
	categoriesShown  int
	reviewQueueShown int
	lastNotice       string
	lastOrder        *models.Order
	lastProducts     []models.Product
}

func (f *fakePresenter) Notify(_ context.Context, _ int64, text string) error {
	f.lastNotice = text
	return nil
}

func (f *fakePresenter) ShowCategories(_ context.Context, _ int64, _ []models.Category) error {
	f.categoriesShown++
	return nil
}

func (f *fakePresenter) ShowProducts(_ context.Context, _ int64, products []models.Product) error {
	f.lastProducts = products
	return nil
}

func (f *fakePresenter) ShowProduct(_ context.Context, _ int64, _ *models.Product) error {
	return nil
}

func (f *fakePresenter) ShowCart(_ context.Context, _ int64, _ *cart.Summary) error {
	return nil
}

func (f *fakePresenter) ShowOrder(_ context.Context, _ int64, order *models.Order) error {
	f.lastOrder = order
	return nil
}

func (f *fakePresenter) ShowOrders(_ context.Context, _ int64, _ []models.Order) error {
	return nil
}

func (f *fakePresenter) ShowPaymentMethods(_ context.Context, _ int64, _ *models.Order, _ []models.PaymentMethod) error {
	return nil
}

func (f *fakePresenter) ShowWallet(_ context.Context, _ int64, _ decimal.Decimal, _ []models.WalletTransaction) error {
	return nil
}

func (f *fakePresenter) ShowTickets(_ context.Context, _ int64, _ []models.Ticket) error {
	return nil
}

func (f *fakePresenter) ShowReviewQueue(_ context.Context, _ int64, _ []models.PaymentProof, _ []models.TopUp) error {
	f.reviewQueueShown++
	return nil
}

type recordedDelivery struct {
	platformID int64
	item       delivery.Item
}

type fakeTransport struct {
	delivered []recordedDelivery
}

func (f *fakeTransport) Deliver(_ context.Context, platformID int64, item delivery.Item) error {
	f.delivered = append(f.delivered, recordedDelivery{platformID: platformID, item: item})
	return nil
}

type fakeKV struct {
	values map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	val, ok := f.values[key]
	return val, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeKV) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:bot_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schemas := []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  platform_id INTEGER NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  handle TEXT,
  banned INTEGER NOT NULL DEFAULT 0,
  balance NUMERIC NOT NULL DEFAULT 0,
  points INTEGER NOT NULL DEFAULT 0,
  preferred_currency TEXT NOT NULL DEFAULT 'USD',
  referrer_id TEXT,
  joined_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  delivery_type TEXT NOT NULL DEFAULT 'manual',
  delivery_payload TEXT,
  delivery_file_ref TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  PRIMARY KEY (user_id, product_id)
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  items_json TEXT NOT NULL,
  total NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT 0,
  balance_used NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  coupon_code TEXT,
  payment_method_id TEXT,
  payment_proof_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS coupons (
  code TEXT PRIMARY KEY,
  discount_percent INTEGER NOT NULL,
  max_uses INTEGER NOT NULL DEFAULT -1,
  used_count INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payment_methods (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  instructions TEXT NOT NULL DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payment_proofs (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  method_id TEXT,
  artifact_ref TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS topups (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  method_id TEXT,
  amount NUMERIC NOT NULL,
  artifact_ref TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS wallet_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  balance_after NUMERIC NOT NULL,
  order_id TEXT,
  topup_id TEXT,
  note TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS tickets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  subject TEXT NOT NULL,
  message TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS ticket_replies (
  id TEXT PRIMARY KEY,
  ticket_id TEXT NOT NULL,
  sender TEXT NOT NULL,
  body TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`}
	for _, schema := range schemas {
		if err := db.Exec(schema).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}
