package delivery

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/rattanstore-backend/internal/orders"
	"github.com/angelmondragon/rattanstore-backend/pkg/telegram"
)

// Channel delivers orders to the configured destination.
type Channel interface {
	Send(ctx context.Context, order *orders.Order) Result
	SendTest(ctx context.Context, chatID string) Result
	Discover(ctx context.Context) ([]DiscoveredChat, error)
}

type ChatType string

const (
	ChatTypeDirect ChatType = "direct"
	ChatTypeGroup  ChatType = "group"
)

// DiscoveredChat is a chat the bot has seen in its pending updates.
type DiscoveredChat struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Type  ChatType `json:"type"`
}

type botAPI interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	GetUpdates(ctx context.Context, req telegram.GetUpdatesRequest) ([]telegram.Update, error)
}

// TelegramConfig is fixed at construction. The wizard never changes ChatID at
// runtime; operators reconfigure it out of band.
type TelegramConfig struct {
	ChatID       string
	ParseMode    string
	TestLanguage string
}

type telegramChannel struct {
	bot botAPI
	cfg TelegramConfig
}

func NewTelegramChannel(bot botAPI, cfg TelegramConfig) (Channel, error) {
	if bot == nil {
		return nil, fmt.Errorf("telegram client required")
	}
	cfg.ChatID = strings.TrimSpace(cfg.ChatID)
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram chat id required")
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = "HTML"
	}
	return &telegramChannel{bot: bot, cfg: cfg}, nil
}

// Send posts the order once. Retrying is left to the caller.
func (c *telegramChannel) Send(ctx context.Context, order *orders.Order) Result {
	if order == nil {
		return Failed(0, "no order to send")
	}
	return c.send(ctx, c.cfg.ChatID, FormatOrder(order))
}

func (c *telegramChannel) SendTest(ctx context.Context, chatID string) Result {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return Failed(0, "chat id is required")
	}
	return c.send(ctx, chatID, TestMessage(c.cfg.TestLanguage))
}

func (c *telegramChannel) send(ctx context.Context, chatID, text string) Result {
	msg, err := c.bot.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: c.cfg.ParseMode,
	})
	if err != nil {
		return failureFromError(err)
	}
	return Delivered(strconv.FormatInt(msg.MessageID, 10))
}

func failureFromError(err error) Result {
	var apiErr *telegram.APIError
	if stdErrors.As(err, &apiErr) {
		return Failed(apiErr.StatusCode, apiErr.Description)
	}
	return Failed(0, err.Error())
}

// Discover lists the distinct chats found in the bot's pending updates, in the
// order they were first seen.
func (c *telegramChannel) Discover(ctx context.Context) ([]DiscoveredChat, error) {
	updates, err := c.bot.GetUpdates(ctx, telegram.GetUpdatesRequest{
		Limit:          100,
		AllowedUpdates: []string{"message", "channel_post", "my_chat_member"},
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(updates))
	chats := make([]DiscoveredChat, 0, len(updates))
	for _, update := range updates {
		chat, ok := update.Chat()
		if !ok {
			continue
		}
		if _, dup := seen[chat.ID]; dup {
			continue
		}
		seen[chat.ID] = struct{}{}

		kind := ChatTypeGroup
		if chat.IsPrivate() {
			kind = ChatTypeDirect
		}
		chats = append(chats, DiscoveredChat{ID: chat.IDString(), Title: chat.DisplayName(), Type: kind})
	}
	return chats, nil
}
