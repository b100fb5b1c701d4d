package delivery

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rattanstore-backend/internal/orders"
	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
)

type labels struct {
	title    string
	name     string
	phone    string
	address  string
	notes    string
	items    string
	total    string
	kg       string
	pcs      string
	currency string
	test     string
}

var labelsByLanguage = map[string]labels{
	"ru": {
		title: "Новый заказ", name: "Имя", phone: "Телефон", address: "Адрес", notes: "Комментарий",
		items: "Товары", total: "Итого", kg: "кг", pcs: "шт", currency: "сум",
		test: "Тестовое сообщение: бот может писать в этот чат.",
	},
	"uz": {
		title: "Yangi buyurtma", name: "Ism", phone: "Telefon", address: "Manzil", notes: "Izoh",
		items: "Mahsulotlar", total: "Jami", kg: "kg", pcs: "dona", currency: "so'm",
		test: "Test xabari: bot ushbu chatga yoza oladi.",
	},
	"en": {
		title: "New order", name: "Name", phone: "Phone", address: "Address", notes: "Notes",
		items: "Items", total: "Total", kg: "kg", pcs: "pcs", currency: "UZS",
		test: "Test message: the bot can post to this chat.",
	},
}

func labelsFor(language string) labels {
	if l, ok := labelsByLanguage[strings.ToLower(strings.TrimSpace(language))]; ok {
		return l
	}
	return labelsByLanguage[orders.DefaultLanguage]
}

// FormatOrder renders the order as Telegram HTML. Customer-supplied text is escaped.
func FormatOrder(order *orders.Order) string {
	l := labelsFor(order.Language)
	esc := html.EscapeString

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", esc(l.title))
	fmt.Fprintf(&b, "<b>%s:</b> %s\n", esc(l.name), esc(order.Customer.Name))
	fmt.Fprintf(&b, "<b>%s:</b> %s\n", esc(l.phone), esc(order.Customer.Phone))
	if order.Customer.Address != "" {
		fmt.Fprintf(&b, "<b>%s:</b> %s\n", esc(l.address), esc(order.Customer.Address))
	}
	if order.Customer.Notes != "" {
		fmt.Fprintf(&b, "<b>%s:</b> %s\n", esc(l.notes), esc(order.Customer.Notes))
	}

	fmt.Fprintf(&b, "\n<b>%s:</b>\n", esc(l.items))
	for i, line := range order.Lines {
		unit := l.pcs
		if enums.ProductCategory(line.Category).IsMaterials() {
			unit = l.kg
		}
		fmt.Fprintf(&b, "%d. %s%s - %d %s x %s = %s %s\n",
			i+1,
			esc(line.ProductName),
			esc(lineAttributes(line.VariantName, line.Size, line.Style)),
			line.Quantity, unit,
			formatMoney(line.UnitPrice),
			formatMoney(line.LineTotal), l.currency,
		)
	}
	fmt.Fprintf(&b, "\n<b>%s: %s %s</b>", esc(l.total), formatMoney(order.Total), esc(l.currency))
	return b.String()
}

// TestMessage is the literal text sent by a wizard test-send.
func TestMessage(language string) string {
	return labelsFor(language).test
}

func lineAttributes(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return " (" + strings.Join(kept, ", ") + ")"
}

// formatMoney groups thousands with spaces: 367000 -> "367 000".
func formatMoney(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	amount = amount.Round(2)
	whole := amount.Truncate(0)
	frac := amount.Sub(whole)

	digits := whole.String()
	var grouped strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}

	out := sign + grouped.String()
	if !frac.IsZero() {
		out += strings.TrimPrefix(frac.StringFixed(2), "0")
	}
	return out
}
