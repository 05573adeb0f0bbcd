package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{12, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"closed sentinel", fmt.Errorf("consume: %w", amqp091.ErrClosed), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"message channel closed", errors.New("ConsumeAlertRaised: message channel closed"), true},
		{"other", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClientCircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "analytics", queueName: "alerts", log: zerolog.Nop()}

	if client.isCircuitOpen() {
		t.Fatal("circuit should start closed")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit should open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Error("circuit should half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Errorf("state = %d, want half-open", client.state)
	}

	client.recordSuccess()
	if atomic.LoadInt32(&client.state) != StateClosed || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Error("success should close the circuit and reset failures")
	}
}

func TestPublishAlertRaisedShortCircuits(t *testing.T) {
	alert := domain.RiskAlert{ID: "alert-1", UserID: "user-1"}

	t.Run("open circuit", func(t *testing.T) {
		client := &Client{log: zerolog.Nop(), lastFailure: time.Now()}
		atomic.StoreInt32(&client.state, StateOpen)

		err := client.PublishAlertRaised(context.Background(), alert)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("PublishAlertRaised() error = %v, want ErrCircuitOpen", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := &Client{log: zerolog.Nop()}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.PublishAlertRaised(ctx, alert); err != context.Canceled {
			t.Errorf("PublishAlertRaised() error = %v, want context.Canceled", err)
		}
	})

	t.Run("no channel counts as failure", func(t *testing.T) {
		client := &Client{log: zerolog.Nop()}
		if err := client.PublishAlertRaised(context.Background(), alert); err == nil {
			t.Fatal("PublishAlertRaised() error = nil, want error")
		}
		if atomic.LoadInt64(&client.failureCount) != 1 {
			t.Errorf("failureCount = %d, want 1", client.failureCount)
		}
	})
}

func TestAlertRaisedMessage(t *testing.T) {
	deadline := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	alert := domain.RiskAlert{
		ID:       "alert-1",
		UserID:   "user-1",
		Type:     domain.AlertUpcomingDeadline,
		Severity: domain.SeverityHigh,
		Title:    "Annual tax filing deadline",
		Deadline: &deadline,
	}

	msg := NewAlertRaisedMessage(alert)
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Minute {
		t.Errorf("Timestamp = %v, want recent", msg.Timestamp)
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(body), `"deadline":"2025-04-15"`) {
		t.Errorf("body = %s", body)
	}

	parsed, err := AlertRaisedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("AlertRaisedMessageFromJSON() error = %v", err)
	}
	back := parsed.Alert()
	if back.ID != alert.ID || back.Severity != alert.Severity || back.Type != alert.Type {
		t.Errorf("Alert() = %+v", back)
	}
	if back.Deadline == nil || !back.Deadline.Equal(deadline) {
		t.Errorf("Deadline = %v, want %v", back.Deadline, deadline)
	}
}

func TestAlertRaisedMessageFromJSONRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `alert`},
		{"missing alert id", `{"user_id":"user-1"}`},
		{"missing user id", `{"alert_id":"alert-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AlertRaisedMessageFromJSON([]byte(tt.body)); err == nil {
				t.Error("AlertRaisedMessageFromJSON() error = nil, want error")
			}
		})
	}
}
