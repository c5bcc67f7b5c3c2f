// Package events contains the messages the product service publishes.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/productcatalog/pkg/messaging"
	"github.com/google/uuid"
)

// ProductCreatedEvent is published after a product has been stored.
type ProductCreatedEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func (e ProductCreatedEvent) Subject() string {
	return messaging.ProductsCreatedSubject
}

func (e ProductCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
