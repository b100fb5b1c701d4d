package checkout

import "strings"

const (
	StatusReceived            = "received"
	StatusPendingConfirmation = "pending_confirmation"
)

type customerMessages struct {
	received string
	pending  string
}

// Failed deliveries of either kind share one message so customers learn nothing
// about the destination configuration.
var messagesByLanguage = map[string]customerMessages{
	"ru": {
		received: "Спасибо! Ваш заказ получен, мы скоро свяжемся с вами.",
		pending:  "Ваш заказ сохранён. Мы свяжемся с вами для подтверждения. Если мы не ответим в ближайшее время, пожалуйста, свяжитесь с нами напрямую.",
	},
	"uz": {
		received: "Rahmat! Buyurtmangiz qabul qilindi, tez orada siz bilan bog'lanamiz.",
		pending:  "Buyurtmangiz saqlandi. Tasdiqlash uchun siz bilan bog'lanamiz. Agar tez orada javob bermasak, iltimos, biz bilan to'g'ridan-to'g'ri bog'laning.",
	},
	"en": {
		received: "Thank you! We received your order and will contact you shortly.",
		pending:  "Your order has been saved and we will contact you to confirm it. If you do not hear from us soon, please contact us directly.",
	},
}

func customerMessage(language string, delivered bool) string {
	msgs, ok := messagesByLanguage[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		msgs = messagesByLanguage["ru"]
	}
	if delivered {
		return msgs.received
	}
	return msgs.pending
}
