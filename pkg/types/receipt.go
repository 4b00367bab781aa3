package types

import "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"

// ReceiptDelivery records one delivery attempt per channel.
type ReceiptDelivery struct {
	Channel     enums.ReceiptChannel `json:"channel"`
	Destination string               `json:"destination,omitempty"`
	SentAt      string               `json:"sent_at,omitempty"`
}
