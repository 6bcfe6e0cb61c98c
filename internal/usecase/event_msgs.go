package usecase

import "time"

// Published on RabbitMQ after an order is stored.
type OrderPlacedMsg struct {
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	Total         string    `json:"total"`
	PaymentMethod string    `json:"paymentMethod"`
	PromoCode     string    `json:"promoCode,omitempty"`
	ItemCount     int       `json:"itemCount"`
	PlacedAt      time.Time `json:"placedAt"`
}

// Sent by the fulfilment service on Kafka
type ShipmentDeliveredMsg struct {
	OrderID     string    `json:"orderId"`
	DeliveredAt time.Time `json:"deliveredAt"`
}
