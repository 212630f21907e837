package models

// WebhookNotification is the push-notification payload MercadoLibre POSTs to
// the webhook endpoint. Fields beyond these are ignored.
type WebhookNotification struct {
	Topic         string `json:"topic"`
	Resource      string `json:"resource"`
	UserID        int64  `json:"user_id"`
	ApplicationID int64  `json:"application_id"`
}

// Known webhook topics. Anything else is logged as unknown and still
// acknowledged.
const (
	TopicOrders    = "orders"
	TopicItems     = "items"
	TopicQuestions = "questions"
)
