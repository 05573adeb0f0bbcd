package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// AlertRaisedMessage announces a newly stored risk alert. Consumers fetch
// nothing else; the message carries what downstream notifications need.
type AlertRaisedMessage struct {
	AlertID   string    `json:"alert_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Deadline  string    `json:"deadline,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAlertRaisedMessage builds the message for a stored alert.
func NewAlertRaisedMessage(alert domain.RiskAlert) *AlertRaisedMessage {
	msg := &AlertRaisedMessage{
		AlertID:   alert.ID,
		UserID:    alert.UserID,
		Type:      string(alert.Type),
		Severity:  string(alert.Severity),
		Title:     alert.Title,
		Timestamp: time.Now().UTC(),
	}
	if alert.Deadline != nil {
		msg.Deadline = alert.Deadline.UTC().Format("2006-01-02")
	}
	return msg
}

// ToJSON converts the message to JSON bytes.
func (m *AlertRaisedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertRaisedMessageFromJSON decodes a message and checks its required
// fields.
func AlertRaisedMessageFromJSON(data []byte) (*AlertRaisedMessage, error) {
	var msg AlertRaisedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.AlertID == "" || msg.UserID == "" {
		return nil, fmt.Errorf("alert raised message missing alert_id or user_id")
	}
	return &msg, nil
}

// Alert converts the message back to the alert fields it carries.
func (m *AlertRaisedMessage) Alert() domain.RiskAlert {
	a := domain.RiskAlert{
		ID:        m.AlertID,
		UserID:    m.UserID,
		Type:      domain.RiskAlertType(m.Type),
		Severity:  domain.Severity(m.Severity),
		Title:     m.Title,
		CreatedAt: m.Timestamp,
	}
	if d, err := time.Parse("2006-01-02", m.Deadline); err == nil {
		a.Deadline = &d
	}
	return a
}
