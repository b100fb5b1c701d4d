package telegram

import (
	"strconv"
	"strings"
)

type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// IDString renders the id the way chat_id expects it.
func (c Chat) IDString() string {
	return strconv.FormatInt(c.ID, 10)
}

// DisplayName picks the best human label for a chat.
func (c Chat) DisplayName() string {
	if title := strings.TrimSpace(c.Title); title != "" {
		return title
	}
	if name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName)); name != "" {
		return name
	}
	if c.Username != "" {
		return "@" + c.Username
	}
	return c.IDString()
}

// IsPrivate reports one-to-one chats with a user.
func (c Chat) IsPrivate() bool {
	return c.Type == "private"
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type ChatMemberUpdated struct {
	Chat Chat  `json:"chat"`
	Date int64 `json:"date"`
}

type Update struct {
	UpdateID      int64              `json:"update_id"`
	Message       *Message           `json:"message,omitempty"`
	EditedMessage *Message           `json:"edited_message,omitempty"`
	ChannelPost   *Message           `json:"channel_post,omitempty"`
	MyChatMember  *ChatMemberUpdated `json:"my_chat_member,omitempty"`
}

// Chat returns the chat an update belongs to, if any.
func (u Update) Chat() (Chat, bool) {
	switch {
	case u.Message != nil:
		return u.Message.Chat, true
	case u.EditedMessage != nil:
		return u.EditedMessage.Chat, true
	case u.ChannelPost != nil:
		return u.ChannelPost.Chat, true
	case u.MyChatMember != nil:
		return u.MyChatMember.Chat, true
	}
	return Chat{}, false
}
