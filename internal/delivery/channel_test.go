package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rattanstore-backend/internal/orders"
	"github.com/angelmondragon/rattanstore-backend/pkg/telegram"
	"github.com/angelmondragon/rattanstore-backend/pkg/types"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestChannel(t *testing.T, rt roundTripFunc) Channel {
	t.Helper()
	client, err := telegram.NewClient("123:abc", telegram.WithBaseURL("http://tg.test"), telegram.WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	channel, err := NewTelegramChannel(client, TelegramConfig{ChatID: "-100200"})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	return channel
}

func testOrder() *orders.Order {
	lines := types.OrderLines{
		{ProductName: "Rattan <thread>", Category: "materials", Quantity: 5, VariantName: "Natural", UnitPrice: decimal.NewFromInt(36000), LineTotal: decimal.NewFromInt(180000)},
		{ProductName: "Classic", Category: "planter", Quantity: 1, Size: "10л", UnitPrice: decimal.NewFromInt(187000), LineTotal: decimal.NewFromInt(187000)},
	}
	return &orders.Order{
		Lines:    lines,
		Customer: types.CustomerInfo{Name: "Ali & Co", Phone: "+998901112233", Notes: "call after 6"},
		Total:    lines.Total(),
		Language: "en",
	}
}

func TestNewTelegramChannelRequiresConfig(t *testing.T) {
	if _, err := NewTelegramChannel(nil, TelegramConfig{ChatID: "1"}); err == nil {
		t.Fatal("expected error for nil client")
	}
	client, _ := telegram.NewClient("t")
	if _, err := NewTelegramChannel(client, TelegramConfig{ChatID: "  "}); err == nil {
		t.Fatal("expected error for empty chat id")
	}
}

func TestSendDelivered(t *testing.T) {
	var payload map[string]any
	channel := newTestChannel(t, func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"ok":true,"result":{"message_id":987,"chat":{"id":-100200,"type":"group"}}}`), nil
	})

	result := channel.Send(context.Background(), testOrder())
	if !result.OK() || result.Reference != "987" {
		t.Fatalf("unexpected result %+v", result)
	}
	if payload["chat_id"] != "-100200" || payload["parse_mode"] != "HTML" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	text, _ := payload["text"].(string)
	if !strings.Contains(text, "Ali &amp; Co") || !strings.Contains(text, "Rattan &lt;thread&gt;") {
		t.Fatalf("customer text not escaped: %q", text)
	}
	if !strings.Contains(text, "367 000 UZS") {
		t.Fatalf("total missing from message: %q", text)
	}
}

func TestSendChatNotFound(t *testing.T) {
	channel := newTestChannel(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`), nil
	})

	result := channel.Send(context.Background(), testOrder())
	if result.OK() {
		t.Fatal("expected failure")
	}
	if result.Failure.HTTPStatus != 400 || result.Failure.ProviderMessage != "Bad Request: chat not found" {
		t.Fatalf("unexpected failure %+v", result.Failure)
	}
	if result.Kind() != FailureDestinationNotConfigured {
		t.Fatalf("unexpected kind %s", result.Kind())
	}
}

func TestSendNetworkErrorIsTransient(t *testing.T) {
	channel := newTestChannel(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	result := channel.Send(context.Background(), testOrder())
	if result.OK() || result.Failure.HTTPStatus != 0 || result.Kind() != FailureTransient {
		t.Fatalf("unexpected result %+v", result.Failure)
	}
	if strings.Contains(result.Failure.ProviderMessage, "123:abc") {
		t.Fatalf("bot token leaked: %q", result.Failure.ProviderMessage)
	}
}

func TestSendTimeoutIsTransient(t *testing.T) {
	channel := newTestChannel(t, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	result := channel.Send(ctx, testOrder())
	if result.OK() || result.Kind() != FailureTransient {
		t.Fatalf("expected transient failure, got %+v", result)
	}
}

func TestSendTestTargetsGivenChat(t *testing.T) {
	var chatID any
	channel := newTestChannel(t, func(req *http.Request) (*http.Response, error) {
		var payload map[string]any
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &payload)
		chatID = payload["chat_id"]
		return jsonResponse(http.StatusOK, `{"ok":true,"result":{"message_id":1}}`), nil
	})

	result := channel.SendTest(context.Background(), " 555 ")
	if !result.OK() || chatID != "555" {
		t.Fatalf("unexpected result %+v chat=%v", result, chatID)
	}
	if res := channel.SendTest(context.Background(), ""); res.OK() {
		t.Fatal("expected failure for empty chat id")
	}
}

func TestDiscoverDeduplicatesChats(t *testing.T) {
	var path string
	channel := newTestChannel(t, func(req *http.Request) (*http.Response, error) {
		path = req.URL.Path
		return jsonResponse(http.StatusOK, `{"ok":true,"result":[
			{"update_id":1,"message":{"message_id":1,"chat":{"id":-100200,"type":"supergroup","title":"Orders"}}},
			{"update_id":2,"message":{"message_id":2,"chat":{"id":-100200,"type":"supergroup","title":"Orders"}}},
			{"update_id":3,"my_chat_member":{"chat":{"id":77,"type":"private","first_name":"Nodira"}}},
			{"update_id":4}
		]}`), nil
	})

	chats, err := channel.Discover(context.Background())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if path != "/bot123:abc/getUpdates" {
		t.Fatalf("unexpected path %q", path)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chats))
	}
	if chats[0] != (DiscoveredChat{ID: "-100200", Title: "Orders", Type: ChatTypeGroup}) {
		t.Fatalf("unexpected first chat %+v", chats[0])
	}
	if chats[1] != (DiscoveredChat{ID: "77", Title: "Nodira", Type: ChatTypeDirect}) {
		t.Fatalf("unexpected second chat %+v", chats[1])
	}
}

func TestDiscoverPropagatesErrors(t *testing.T) {
	channel := newTestChannel(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"ok":false,"error_code":401,"description":"Unauthorized"}`), nil
	})
	if _, err := channel.Discover(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
