package comfortcloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-bridges/internal/cloudauth"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/mqtt"
)

const testBaseURL = "https://acc.example.test"

// MockPublisher implements Publisher for testing.
type MockPublisher struct {
	mu        sync.Mutex
	published []mockPublish
	handlers  map[string]mqtt.MessageHandler
	connected bool
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{connected: true, handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *MockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, mockPublish{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *MockPublisher) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockPublisher) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockPublisher) SetConnected(v bool) {
	m.mu.Lock()
	m.connected = v
	m.mu.Unlock()
}

// PublishedTo returns the messages published to topic, oldest first.
func (m *MockPublisher) PublishedTo(topic string) []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockPublish
	for _, p := range m.published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockPublisher) HasHandler(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handlers[topic]
	return ok
}

// MockExecutor serves canned Comfort Cloud responses.
type MockExecutor struct {
	mu            sync.Mutex
	groups        string
	statuses      map[string]string
	controlResult string
	getErr        error
	groupsErr     error
	postErr       error
	groupCalls    int
	controls      []controlRequest
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		groups: `{"groupList":[
			{"groupName":"Ground floor","deviceList":[
				{"deviceGuid":"CS-Z25VKEW+1001","deviceName":"Lounge","deviceModuleNumber":"CS-Z25VKEW","deviceType":"3"},
				{"deviceGuid":"","deviceName":"ghost"}
			]},
			{"groupName":"First floor","deviceList":[
				{"deviceGuid":"CS-Z35VKEW+2002","deviceName":"Bedroom","deviceModuleNumber":"CS-Z35VKEW","deviceType":"3"}
			]}
		]}`,
		statuses: map[string]string{
			"CS-Z25VKEW+1001": statusJSON(1, 3, 21.5, 19, 126),
			"CS-Z35VKEW+2002": statusJSON(0, 2, 24, 23, 126),
		},
		controlResult: `{"result":0}`,
	}
}

func statusJSON(operate, mode int, set, inside, outside float64) string {
	b, _ := json.Marshal(map[string]any{
		"timestamp": 1772366400000,
		"parameters": map[string]any{
			"operate":            operate,
			"operationMode":      mode,
			"temperatureSet":     set,
			"fanSpeed":           0,
			"ecoMode":            0,
			"airSwingUD":         2,
			"airSwingLR":         -1,
			"insideTemperature":  inside,
			"outsideTemperature": outside,
		},
	})
	return string(b)
}

func (m *MockExecutor) SetStatus(guid, raw string) {
	m.mu.Lock()
	m.statuses[guid] = raw
	m.mu.Unlock()
}

func (m *MockExecutor) GroupCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groupCalls
}

func (m *MockExecutor) SetGroupsErr(err error) {
	m.mu.Lock()
	m.groupsErr = err
	m.mu.Unlock()
}

func (m *MockExecutor) Controls() []controlRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]controlRequest(nil), m.controls...)
}

func (m *MockExecutor) ExecuteGet(ctx context.Context, rawURL, name string, _ int) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	switch {
	case strings.HasSuffix(rawURL, "/device/group"):
		m.groupCalls++
		if m.groupsErr != nil {
			return nil, m.groupsErr
		}
		return json.RawMessage(m.groups), nil
	case strings.Contains(rawURL, "/deviceStatus/now/"):
		guid, _ := url.PathUnescape(rawURL[strings.LastIndex(rawURL, "/")+1:])
		if s, ok := m.statuses[guid]; ok {
			return json.RawMessage(s), nil
		}
	}
	return nil, &cloudauth.ResponseError{Name: name, Expected: 200, Actual: 404}
}

func (m *MockExecutor) ExecutePost(ctx context.Context, rawURL string, body any, name string, _ int) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postErr != nil {
		return nil, m.postErr
	}
	if !strings.HasSuffix(rawURL, "/deviceStatus/control") {
		return nil, &cloudauth.ResponseError{Name: name, Expected: 200, Actual: 404}
	}
	req, ok := body.(controlRequest)
	if !ok {
		return nil, errors.New("unexpected control body type")
	}
	m.controls = append(m.controls, req)
	return json.RawMessage(m.controlResult), nil
}

// MockTelemetry records writes.
type MockTelemetry struct {
	mu      sync.Mutex
	samples []influxdb.ClimateSample
	polls   int
	lastOK  bool
}

func (m *MockTelemetry) WriteClimateSample(s influxdb.ClimateSample) {
	m.mu.Lock()
	m.samples = append(m.samples, s)
	m.mu.Unlock()
}

func (m *MockTelemetry) WriteBridgePoll(_ string, _ int, _ time.Duration, ok bool) {
	m.mu.Lock()
	m.polls++
	m.lastOK = ok
	m.mu.Unlock()
}

// MockSink records state changes.
type MockSink struct {
	mu   sync.Mutex
	msgs []StateMessage
}

func (m *MockSink) DeviceStateChanged(msg StateMessage) {
	m.mu.Lock()
	m.msgs = append(m.msgs, msg)
	m.mu.Unlock()
}

func (m *MockSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

type fakeSession struct {
	state cloudauth.State
	token *cloudauth.Token
}

func (f fakeSession) State() cloudauth.State  { return f.state }
func (f fakeSession) Token() *cloudauth.Token { return f.token }
