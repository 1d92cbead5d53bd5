package render

import (
	"context"
	"fmt"

	"github.com/angelmondragon/chatstore-backend/internal/delivery"
	"github.com/angelmondragon/chatstore-backend/pkg/chatapi"
)

// Transport sends purchased goods to the buyer over the chat API. File-backed
// items go out as file attachments, everything else as a text message
// carrying the payload.
type Transport struct {
	chat sender
}

func NewTransport(chat sender) (*Transport, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat sender required")
	}
	return &Transport{chat: chat}, nil
}

func (t *Transport) Deliver(ctx context.Context, platformID int64, item delivery.Item) error {
	if item.FileRef != nil && *item.FileRef != "" {
		return t.chat.SendFile(ctx, chatapi.SendFileRequest{
			PlatformID: platformID,
			FileRef:    *item.FileRef,
			Caption:    item.Name,
		})
	}
	text := fmt.Sprintf("Your purchase — %s:\n\n%s", item.Name, item.Payload)
	return t.chat.SendMessage(ctx, chatapi.SendMessageRequest{PlatformID: platformID, Text: text})
}
