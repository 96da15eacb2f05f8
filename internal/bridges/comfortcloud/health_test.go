package comfortcloud

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-bridges/internal/cloudauth"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/mqtt"
)

func TestHealthReporter_DetermineStatus(t *testing.T) {
	failed := time.Now()

	tests := []struct {
		name       string
		connected  bool
		session    SessionState
		stats      func() Statistics
		wantStatus HealthStatus
		wantReason string
	}{
		{
			name:       "healthy",
			connected:  true,
			session:    fakeSession{state: cloudauth.StateValid},
			wantStatus: HealthHealthy,
		},
		{
			name:       "mqtt down",
			connected:  false,
			session:    fakeSession{state: cloudauth.StateValid},
			wantStatus: HealthDegraded,
			wantReason: "MQTT disconnected",
		},
		{
			name:       "no token",
			connected:  true,
			session:    fakeSession{state: cloudauth.StateNoToken},
			wantStatus: HealthDegraded,
			wantReason: "cloud session has no valid token",
		},
		{
			name:       "no session",
			connected:  true,
			wantStatus: HealthDegraded,
			wantReason: "cloud session has no valid token",
		},
		{
			name:       "last poll failed",
			connected:  true,
			session:    fakeSession{state: cloudauth.StateValid},
			stats:      func() Statistics { return Statistics{LastPoll: &failed} },
			wantStatus: HealthDegraded,
			wantReason: "last poll failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := NewMockPublisher()
			pub.SetConnected(tt.connected)

			h := NewHealthReporter(HealthReporterConfig{
				BridgeID:  "cc-test",
				Publisher: pub,
				Session:   tt.session,
				Stats:     tt.stats,
			})

			status, reason := h.determineStatus()
			if status != tt.wantStatus || reason != tt.wantReason {
				t.Errorf("determineStatus() = %q, %q; want %q, %q", status, reason, tt.wantStatus, tt.wantReason)
			}
		})
	}
}

func TestHealthReporter_PublishNow(t *testing.T) {
	pub := NewMockPublisher()
	tok := &cloudauth.Token{ReceivedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), ExpiresIn: 3600}

	h := NewHealthReporter(HealthReporterConfig{
		BridgeID:  "cc-test",
		Version:   "1.2.3",
		Publisher: pub,
		Session:   fakeSession{state: cloudauth.StateValid, token: tok},
		Stats:     func() Statistics { return Statistics{Polls: 4} },
	})
	h.SetDeviceCount(2)

	if err := h.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	published := pub.PublishedTo(mqtt.Topics{}.BridgeHealth(Protocol))
	if len(published) != 1 || !published[0].Retained {
		t.Fatalf("health publishes = %+v, want one retained", published)
	}

	var msg HealthMessage
	if err := json.Unmarshal(published[0].Payload, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Status != HealthHealthy || msg.Version != "1.2.3" || msg.DevicesManaged != 2 {
		t.Errorf("health = %+v", msg)
	}
	if msg.Session == nil || msg.Session.State != "valid" || msg.Session.ExpiresAt == nil {
		t.Fatalf("session = %+v", msg.Session)
	}
	// The access token has no readable claim, so the local expiry applies.
	if !msg.Session.ExpiresAt.Equal(tok.LocalExpiry()) {
		t.Errorf("expires_at = %v, want %v", msg.Session.ExpiresAt, tok.LocalExpiry())
	}
	if msg.Statistics == nil || msg.Statistics.Polls != 4 {
		t.Errorf("statistics = %+v", msg.Statistics)
	}
}

func TestHealthReporter_StopIsIdempotent(t *testing.T) {
	pub := NewMockPublisher()
	h := NewHealthReporter(HealthReporterConfig{Publisher: pub, Interval: time.Hour})
	h.Start(t.Context())

	h.Stop()
	h.Stop()

	if n := len(pub.PublishedTo(mqtt.Topics{}.BridgeHealth(Protocol))); n != 1 {
		t.Errorf("publishes after double Stop = %d, want 1", n)
	}
}
