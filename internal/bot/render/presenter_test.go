package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/internal/cart"
	"github.com/angelmondragon/chatstore-backend/internal/delivery"
	"github.com/angelmondragon/chatstore-backend/pkg/chatapi"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

type fakeSender struct {
	messages []chatapi.SendMessageRequest
	files    []chatapi.SendFileRequest
}

func (f *fakeSender) SendMessage(_ context.Context, req chatapi.SendMessageRequest) error {
	f.messages = append(f.messages, req)
	return nil
}

func (f *fakeSender) SendFile(_ context.Context, req chatapi.SendFileRequest) error {
	f.files = append(f.files, req)
	return nil
}

func buttonIDs(msg chatapi.SendMessageRequest) []string {
	var ids []string
	for _, row := range msg.Buttons {
		for _, b := range row {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func TestShowCartRendersLinesWithControls(t *testing.T) {
	chat := &fakeSender{}
	p, err := NewPresenter(chat)
	if err != nil {
		t.Fatalf("new presenter: %v", err)
	}

	productID := uuid.New()
	summary := &cart.Summary{
		Lines: []cart.Line{{
			Product:   models.Product{ID: productID, Name: "Widget", Price: decimal.RequireFromString("9.99")},
			Qty:       2,
			LineTotal: decimal.RequireFromString("19.98"),
		}},
		Subtotal: decimal.RequireFromString("19.98"),
	}
	if err := p.ShowCart(context.Background(), 42, summary); err != nil {
		t.Fatalf("show cart: %v", err)
	}

	msg := chat.messages[0]
	if !strings.Contains(msg.Text, "Widget ×2 — 19.98") {
		t.Fatalf("line missing from cart text: %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "Subtotal: 19.98") {
		t.Fatalf("subtotal missing: %q", msg.Text)
	}

	ids := buttonIDs(msg)
	for _, want := range []string{"cart_inc:" + productID.String(), "cart_dec:" + productID.String(), "checkout", "cart_clear"} {
		found := false
		for _, id := range ids {
			if id == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected button %q, got %v", want, ids)
		}
	}
}

func TestShowOrderOffersActionsByState(t *testing.T) {
	chat := &fakeSender{}
	p, _ := NewPresenter(chat)

	items, _ := json.Marshal([]models.OrderItem{{Name: "Widget", UnitPrice: decimal.RequireFromString("9.99"), Qty: 1}})
	order := &models.Order{
		ID:        uuid.New(),
		ItemsJSON: items,
		Total:     decimal.RequireFromString("9.99"),
		Status:    enums.OrderStatusPending,
	}
	if err := p.ShowOrder(context.Background(), 42, order); err != nil {
		t.Fatalf("show pending order: %v", err)
	}

	ids := buttonIDs(chat.messages[0])
	if ids[0] != "coupon:"+order.ID.String() {
		t.Fatalf("pending order must offer coupon first, got %v", ids)
	}

	order.Status = enums.OrderStatusConfirmed
	order.PaymentStatus = enums.PaymentStatusUnpaid
	if err := p.ShowOrder(context.Background(), 42, order); err != nil {
		t.Fatalf("show confirmed order: %v", err)
	}
	ids = buttonIDs(chat.messages[1])
	if ids[0] != "pay:"+order.ID.String() {
		t.Fatalf("unpaid confirmed order must offer pay, got %v", ids)
	}
}

func TestShowReviewQueuePairsDecisions(t *testing.T) {
	chat := &fakeSender{}
	p, _ := NewPresenter(chat)

	proof := models.PaymentProof{ID: uuid.New()}
	topUp := models.TopUp{ID: uuid.New(), Amount: decimal.RequireFromString("25.00")}
	if err := p.ShowReviewQueue(context.Background(), 42, []models.PaymentProof{proof}, []models.TopUp{topUp}); err != nil {
		t.Fatalf("show review queue: %v", err)
	}

	ids := buttonIDs(chat.messages[0])
	want := []string{
		"approve_proof:" + proof.ID.String(),
		"reject_proof:" + proof.ID.String(),
		"approve_topup:" + topUp.ID.String(),
		"reject_topup:" + topUp.ID.String(),
	}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("expected %q at %d, got %v", id, i, ids)
		}
	}
}

func TestTransportPicksFileOrText(t *testing.T) {
	chat := &fakeSender{}
	tr, err := NewTransport(chat)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}

	fileRef := "file/manual.pdf"
	err = tr.Deliver(context.Background(), 42, delivery.Item{Name: "Guide", FileRef: &fileRef})
	if err != nil {
		t.Fatalf("deliver file item: %v", err)
	}
	if len(chat.files) != 1 || chat.files[0].FileRef != fileRef {
		t.Fatalf("expected file delivery, got %+v", chat.files)
	}

	err = tr.Deliver(context.Background(), 42, delivery.Item{Name: "License", Payload: "KEY-1"})
	if err != nil {
		t.Fatalf("deliver text item: %v", err)
	}
	if len(chat.messages) != 1 || !strings.Contains(chat.messages[0].Text, "KEY-1") {
		t.Fatalf("expected payload in message, got %+v", chat.messages)
	}
}
