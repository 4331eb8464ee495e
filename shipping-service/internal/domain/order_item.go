package domain

import (
	"encoding/json"
	"time"
)

// OrderItemKey is the natural identity of an order line. It is stored as the
// document _id, so field order matters for equality matches.
type OrderItemKey struct {
	ProductID int64 `bson:"product_id" json:"productId"`
	OrderID   int64 `bson:"order_id" json:"orderId"`
}

func (k OrderItemKey) Valid() bool {
	return k.ProductID > 0 && k.OrderID > 0
}

type OrderItem struct {
	Key             OrderItemKey `bson:"_id"`
	OrderedQuantity int          `bson:"ordered_quantity"`
	CreatedAt       time.Time    `bson:"created_at"`
	UpdatedAt       time.Time    `bson:"updated_at"`
}

// Product is the catalog record served by product-service.
type Product struct {
	ProductID    int64       `json:"productId"`
	ProductTitle string      `json:"productTitle"`
	ImageURL     string      `json:"imageUrl"`
	SKU          string      `json:"sku"`
	PriceUnit    json.Number `json:"priceUnit"`
	Quantity     int         `json:"quantity"`
}

// OrderSummary is the order shape served by orders-service.
type OrderSummary struct {
	ID        int64       `json:"id"`
	OrderDate time.Time   `json:"orderDate"`
	OrderDesc string      `json:"orderDesc"`
	OrderFee  json.Number `json:"orderFee"`
	Status    string      `json:"status"`
}
