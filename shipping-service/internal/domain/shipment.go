package domain

import "time"

type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "PENDING"
	ShipmentStatusShipped   ShipmentStatus = "SHIPPED"
	ShipmentStatusDelivered ShipmentStatus = "DELIVERED"
	ShipmentStatusCancelled ShipmentStatus = "CANCELLED"
)

type ShippingMethod string

const (
	ShippingMethodStandard ShippingMethod = "STANDARD"
	ShippingMethodExpress  ShippingMethod = "EXPRESS"
)

var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusPending:   {ShipmentStatusShipped, ShipmentStatusCancelled},
	ShipmentStatusShipped:   {ShipmentStatusDelivered},
	ShipmentStatusDelivered: {},
	ShipmentStatusCancelled: {},
}

func ParseShipmentStatus(s string) (ShipmentStatus, bool) {
	st := ShipmentStatus(s)
	_, ok := shipmentTransitions[st]
	return st, ok
}

func ParseShippingMethod(s string) (ShippingMethod, bool) {
	switch m := ShippingMethod(s); m {
	case ShippingMethodStandard, ShippingMethodExpress:
		return m, true
	}
	return "", false
}

func (s ShipmentStatus) CanTransitionTo(to ShipmentStatus) bool {
	if s == to {
		return true
	}
	for _, allowed := range shipmentTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Shipment struct {
	ID              int64          `bson:"_id"`
	OrderID         int64          `bson:"order_id"`
	ShippingAddress string         `bson:"shipping_address"`
	ShippingMethod  ShippingMethod `bson:"shipping_method"`
	Status          ShipmentStatus `bson:"status"`
	CreatedAt       time.Time      `bson:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at"`
}
