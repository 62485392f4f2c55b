package amqp

import (
	"encoding/json"
	"time"
)

// RenewalAlertMessage notifies downstream consumers (mailers, push
// gateways) that a subscription renews within the lookahead window.
type RenewalAlertMessage struct {
	UserID           string    `json:"userId"`
	SubscriptionID   string    `json:"subscriptionId"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	RenewalDate      string    `json:"renewalDate"`
	DaysUntilRenewal int       `json:"daysUntilRenewal"`
	Level            string    `json:"level"`
	Timestamp        time.Time `json:"timestamp"`
}

// LedgerChangedMessage records a successful ledger mutation. It is
// fire-and-forget: publish failures are logged, never surfaced to the user.
type LedgerChangedMessage struct {
	UserID         string    `json:"userId"`
	SubscriptionID string    `json:"subscriptionId"`
	Action         string    `json:"action"` // added, updated, removed
	Timestamp      time.Time `json:"timestamp"`
}

func (m *RenewalAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RenewalAlertMessageFromJSON(data []byte) (*RenewalAlertMessage, error) {
	var msg RenewalAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
