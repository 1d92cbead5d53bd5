package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/internal/cart"
	"github.com/angelmondragon/chatstore-backend/pkg/chatapi"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// sender is the slice of the chat API client the renderer needs.
type sender interface {
	SendMessage(ctx context.Context, req chatapi.SendMessageRequest) error
	SendFile(ctx context.Context, req chatapi.SendFileRequest) error
}

// Presenter renders storefront state as chat messages with button keyboards.
// Button ids follow the router's vocabulary; the platform echoes them back
// verbatim in the next update.
type Presenter struct {
	chat sender
}

func NewPresenter(chat sender) (*Presenter, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat sender required")
	}
	return &Presenter{chat: chat}, nil
}

func (p *Presenter) Notify(ctx context.Context, platformID int64, text string) error {
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: text})
}

func (p *Presenter) ShowCategories(ctx context.Context, platformID int64, categories []models.Category) error {
	buttons := make([][]chatapi.Button, 0, len(categories)+1)
	for _, c := range categories {
		buttons = append(buttons, []chatapi.Button{{ID: "category:" + c.ID.String(), Label: c.Name}})
	}
	buttons = append(buttons, []chatapi.Button{
		{ID: "cart", Label: "Cart"},
		{ID: "orders", Label: "Orders"},
		{ID: "wallet", Label: "Wallet"},
		{ID: "tickets", Label: "Support"},
	})

	text := "What are you shopping for?"
	if len(categories) == 0 {
		text = "The store is empty right now, check back soon."
	}
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: text, Buttons: buttons})
}

func (p *Presenter) ShowProducts(ctx context.Context, platformID int64, products []models.Product) error {
	if len(products) == 0 {
		return p.Notify(ctx, platformID, "Nothing found. Try another search or browse the menu.")
	}
	buttons := make([][]chatapi.Button, 0, len(products)+1)
	for _, prod := range products {
		label := fmt.Sprintf("%s — %s", prod.Name, money(prod.Price))
		buttons = append(buttons, []chatapi.Button{{ID: "product:" + prod.ID.String(), Label: label}})
	}
	buttons = append(buttons, []chatapi.Button{{ID: "menu", Label: "Back to menu"}})
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{
		PlatformID: platformID,
		Text:       "Pick a product:",
		Buttons:    buttons,
	})
}

func (p *Presenter) ShowProduct(ctx context.Context, platformID int64, product *models.Product) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\nPrice: %s", product.Name, product.Description, money(product.Price))
	if product.Stock == models.UnlimitedStock {
		b.WriteString("\nIn stock")
	} else if product.Stock > 0 {
		fmt.Fprintf(&b, "\nIn stock: %d", product.Stock)
	} else {
		b.WriteString("\nOut of stock")
	}

	buttons := [][]chatapi.Button{{{ID: "menu", Label: "Back"}}}
	if product.InStock(1) {
		buttons = [][]chatapi.Button{
			{{ID: "add:" + product.ID.String(), Label: "Add to cart"}},
			{{ID: "menu", Label: "Back"}},
		}
	}
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: b.String(), Buttons: buttons})
}

func (p *Presenter) ShowCart(ctx context.Context, platformID int64, summary *cart.Summary) error {
	if summary == nil || len(summary.Lines) == 0 {
		return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{
			PlatformID: platformID,
			Text:       "Your cart is empty.",
			Buttons:    [][]chatapi.Button{{{ID: "catalog", Label: "Browse the store"}}},
		})
	}

	var b strings.Builder
	b.WriteString("Your cart:\n")
	buttons := make([][]chatapi.Button, 0, len(summary.Lines)+2)
	for _, line := range summary.Lines {
		fmt.Fprintf(&b, "\n%s ×%d — %s", line.Product.Name, line.Qty, money(line.LineTotal))
		id := line.Product.ID.String()
		buttons = append(buttons, []chatapi.Button{
			{ID: "cart_dec:" + id, Label: "−"},
			{ID: "cart_inc:" + id, Label: "+"},
			{ID: "cart_del:" + id, Label: "Remove"},
		})
	}
	fmt.Fprintf(&b, "\n\nSubtotal: %s", money(summary.Subtotal))
	buttons = append(buttons,
		[]chatapi.Button{{ID: "checkout", Label: "Checkout"}},
		[]chatapi.Button{{ID: "cart_clear", Label: "Clear cart"}, {ID: "catalog", Label: "Keep shopping"}},
	)
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: b.String(), Buttons: buttons})
}

func (p *Presenter) ShowOrder(ctx context.Context, platformID int64, order *models.Order) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", shortID(order.ID.String()))
	if items, err := order.Items(); err == nil {
		for _, item := range items {
			lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty)))
			fmt.Fprintf(&b, "\n%s ×%d — %s", item.Name, item.Qty, money(lineTotal))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTotal: %s", money(order.Total))
	if order.Discount.IsPositive() {
		fmt.Fprintf(&b, "\nDiscount: -%s", money(order.Discount))
		if order.CouponCode != nil {
			fmt.Fprintf(&b, " (%s)", *order.CouponCode)
		}
	}
	if order.BalanceUsed.IsPositive() {
		fmt.Fprintf(&b, "\nWallet: -%s", money(order.BalanceUsed))
	}
	fmt.Fprintf(&b, "\nTo pay: %s", money(order.Payable()))
	fmt.Fprintf(&b, "\n\nStatus: %s / %s", order.Status, order.PaymentStatus)

	id := order.ID.String()
	var buttons [][]chatapi.Button
	switch {
	case order.Status == enums.OrderStatusPending:
		buttons = [][]chatapi.Button{
			{{ID: "coupon:" + id, Label: "Apply coupon"}, {ID: "balance:" + id, Label: "Use wallet"}},
			{{ID: "confirm:" + id, Label: "Confirm order"}},
			{{ID: "cancel:" + id, Label: "Cancel"}},
		}
	case order.Status == enums.OrderStatusConfirmed && order.PaymentStatus != enums.PaymentStatusPaid:
		buttons = [][]chatapi.Button{
			{{ID: "pay:" + id, Label: "Pay now"}},
			{{ID: "orders", Label: "My orders"}},
		}
	default:
		buttons = [][]chatapi.Button{{{ID: "orders", Label: "My orders"}}}
	}
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: b.String(), Buttons: buttons})
}

func (p *Presenter) ShowOrders(ctx context.Context, platformID int64, orders []models.Order) error {
	if len(orders) == 0 {
		return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{
			PlatformID: platformID,
			Text:       "You have no orders yet.",
			Buttons:    [][]chatapi.Button{{{ID: "catalog", Label: "Browse the store"}}},
		})
	}
	buttons := make([][]chatapi.Button, 0, len(orders)+1)
	for _, o := range orders {
		label := fmt.Sprintf("%s — %s — %s", shortID(o.ID.String()), money(o.Total), o.Status)
		buttons = append(buttons, []chatapi.Button{{ID: "order:" + o.ID.String(), Label: label}})
	}
	buttons = append(buttons, []chatapi.Button{{ID: "menu", Label: "Back to menu"}})
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: "Your orders:", Buttons: buttons})
}

func (p *Presenter) ShowPaymentMethods(ctx context.Context, platformID int64, order *models.Order, methods []models.PaymentMethod) error {
	if len(methods) == 0 {
		return p.Notify(ctx, platformID, "No payment methods are available right now, please contact support.")
	}
	buttons := make([][]chatapi.Button, 0, len(methods))
	for _, m := range methods {
		buttons = append(buttons, []chatapi.Button{{
			ID:    fmt.Sprintf("method:%s:%s", order.ID, m.ID),
			Label: m.Name,
		}})
	}
	text := fmt.Sprintf("Pay %s for order %s. Pick a method:", money(order.Payable()), shortID(order.ID.String()))
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: text, Buttons: buttons})
}

func (p *Presenter) ShowWallet(ctx context.Context, platformID int64, balance decimal.Decimal, history []models.WalletTransaction) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Wallet balance: %s", money(balance))
	if len(history) > 0 {
		b.WriteString("\n\nRecent activity:")
		for _, entry := range history {
			sign := "+"
			if entry.Amount.IsNegative() {
				sign = ""
			}
			fmt.Fprintf(&b, "\n%s%s — %s", sign, money(entry.Amount), entry.Type)
		}
	}
	buttons := [][]chatapi.Button{
		{{ID: "topup", Label: "Top up"}},
		{{ID: "menu", Label: "Back to menu"}},
	}
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: b.String(), Buttons: buttons})
}

func (p *Presenter) ShowTickets(ctx context.Context, platformID int64, tickets []models.Ticket) error {
	buttons := [][]chatapi.Button{}
	var b strings.Builder
	if len(tickets) == 0 {
		b.WriteString("No tickets.")
	} else {
		b.WriteString("Tickets:\n")
		for _, tk := range tickets {
			fmt.Fprintf(&b, "\n%s [%s] %s", shortID(tk.ID.String()), tk.Status, tk.Subject)
			if tk.Status == enums.TicketStatusOpen {
				buttons = append(buttons, []chatapi.Button{
					{ID: "ticket_reply:" + tk.ID.String(), Label: "Reply: " + tk.Subject},
					{ID: "ticket_close:" + tk.ID.String(), Label: "Close"},
				})
			}
		}
	}
	buttons = append(buttons,
		[]chatapi.Button{{ID: "ticket_new", Label: "New ticket"}},
		[]chatapi.Button{{ID: "menu", Label: "Back to menu"}},
	)
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: b.String(), Buttons: buttons})
}

func (p *Presenter) ShowReviewQueue(ctx context.Context, platformID int64, proofs []models.PaymentProof, topUps []models.TopUp) error {
	if len(proofs) == 0 && len(topUps) == 0 {
		return p.Notify(ctx, platformID, "Review queue is empty.")
	}

	var b strings.Builder
	buttons := make([][]chatapi.Button, 0, len(proofs)+len(topUps))
	if len(proofs) > 0 {
		fmt.Fprintf(&b, "Payment proofs pending: %d\n", len(proofs))
		for _, proof := range proofs {
			id := proof.ID.String()
			buttons = append(buttons, []chatapi.Button{
				{ID: "approve_proof:" + id, Label: "Approve " + shortID(id)},
				{ID: "reject_proof:" + id, Label: "Reject"},
			})
		}
	}
	if len(topUps) > 0 {
		fmt.Fprintf(&b, "Top-ups pending: %d\n", len(topUps))
		for _, topUp := range topUps {
			id := topUp.ID.String()
			buttons = append(buttons, []chatapi.Button{
				{ID: "approve_topup:" + id, Label: fmt.Sprintf("Approve %s (%s)", shortID(id), money(topUp.Amount))},
				{ID: "reject_topup:" + id, Label: "Reject"},
			})
		}
	}
	return p.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: b.String(), Buttons: buttons})
}

func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func shortID(id string) string {
	if len(id) > 8 {
		return "#" + id[:8]
	}
	return "#" + id
}
