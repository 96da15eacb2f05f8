package comfortcloud

import "time"

// Protocol is the protocol segment of every topic this bridge uses.
const Protocol = "comfortcloud"

// CommandMessage is sent from Core to the bridge.
// Topic: graylogic/command/comfortcloud/{address}
type CommandMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`

	// Command is one of on, off, set_mode, set_temperature, set_fan_speed,
	// set_eco or set_swing.
	Command string `json:"command"`

	// Parameters holds command values, for example
	//   {"mode": "heat"} for set_mode
	//   {"temperature": 21.5} for set_temperature
	Parameters map[string]any `json:"parameters,omitempty"`

	Source string `json:"source"`
}

// Commands understood by the bridge.
const (
	CommandOn             = "on"
	CommandOff            = "off"
	CommandSetMode        = "set_mode"
	CommandSetTemperature = "set_temperature"
	CommandSetFanSpeed    = "set_fan_speed"
	CommandSetEco         = "set_eco"
	CommandSetSwing       = "set_swing"
)

// AckStatus is the outcome reported for a command.
type AckStatus string

const (
	AckAccepted AckStatus = "accepted"
	AckFailed   AckStatus = "failed"
)

// AckMessage acknowledges a command.
// Topic: graylogic/ack/comfortcloud/{address}, not retained.
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`
	Address   string    `json:"address"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError carries the reason for a failed command.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for failed commands.
const (
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeNotConfigured     = "NOT_CONFIGURED"
	ErrCodeRejected          = "REJECTED"
	ErrCodeCloudUnreachable  = "CLOUD_UNREACHABLE"
)

// UnitState is the decoded state of one unit. Nil temperatures are
// unavailable on the unit.
type UnitState struct {
	Power              string   `json:"power"`
	Mode               string   `json:"mode"`
	TargetTemperature  *float64 `json:"target_temperature,omitempty"`
	FanSpeed           string   `json:"fan_speed"`
	Eco                string   `json:"eco"`
	SwingVertical      string   `json:"swing_vertical"`
	SwingHorizontal    string   `json:"swing_horizontal"`
	InsideTemperature  *float64 `json:"inside_temperature,omitempty"`
	OutsideTemperature *float64 `json:"outside_temperature,omitempty"`
}

// Equal reports whether two states carry the same values.
func (s UnitState) Equal(o UnitState) bool {
	return s.Power == o.Power &&
		s.Mode == o.Mode &&
		s.FanSpeed == o.FanSpeed &&
		s.Eco == o.Eco &&
		s.SwingVertical == o.SwingVertical &&
		s.SwingHorizontal == o.SwingHorizontal &&
		floatPtrEqual(s.TargetTemperature, o.TargetTemperature) &&
		floatPtrEqual(s.InsideTemperature, o.InsideTemperature) &&
		floatPtrEqual(s.OutsideTemperature, o.OutsideTemperature)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// stateFromParameters decodes a status parameter block.
func stateFromParameters(p Parameters) UnitState {
	var s UnitState
	if p.Operate != nil {
		s.Power = p.Operate.String()
	}
	if p.OperationMode != nil {
		s.Mode = p.OperationMode.String()
	}
	if p.FanSpeed != nil {
		s.FanSpeed = p.FanSpeed.String()
	}
	if p.EcoMode != nil {
		s.Eco = p.EcoMode.String()
	}
	if p.AirSwingUD != nil {
		s.SwingVertical = p.AirSwingUD.String()
	}
	if p.AirSwingLR != nil {
		s.SwingHorizontal = p.AirSwingLR.String()
	}
	s.TargetTemperature = availableTemperature(p.TemperatureSet)
	s.InsideTemperature = availableTemperature(p.InsideTemperature)
	s.OutsideTemperature = availableTemperature(p.OutsideTemperature)
	return s
}

func availableTemperature(t *float64) *float64 {
	if t == nil || *t == temperatureUnavailable {
		return nil
	}
	v := *t
	return &v
}

// StateMessage is published when a unit's state changes.
// Topic: graylogic/state/comfortcloud/{address}, QoS 1, retained.
type StateMessage struct {
	DeviceID  string    `json:"device_id"`
	Name      string    `json:"name,omitempty"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	State     UnitState `json:"state"`
	Protocol  string    `json:"protocol"`
	Address   string    `json:"address"`
}

// HealthStatus is the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports bridge status.
// Topic: graylogic/health/comfortcloud, QoS 1, retained.
type HealthMessage struct {
	Bridge         string         `json:"bridge"`
	Timestamp      time.Time      `json:"timestamp"`
	Status         HealthStatus   `json:"status"`
	Version        string         `json:"version"`
	UptimeSeconds  int64          `json:"uptime_seconds"`
	Session        *SessionStatus `json:"session,omitempty"`
	Statistics     *Statistics    `json:"statistics,omitempty"`
	DevicesManaged int            `json:"devices_managed"`
	Reason         string         `json:"reason,omitempty"`
}

// SessionStatus summarises the cloud session without exposing tokens.
type SessionStatus struct {
	State     string     `json:"state"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Statistics are cumulative bridge counters.
type Statistics struct {
	Polls            uint64     `json:"polls"`
	PollErrors       uint64     `json:"poll_errors"`
	CommandsAccepted uint64     `json:"commands_accepted"`
	CommandsFailed   uint64     `json:"commands_failed"`
	LastPoll         *time.Time `json:"last_poll,omitempty"`
	LastPollOK       bool       `json:"last_poll_ok"`
}

func newAck(cmd CommandMessage, address string, status AckStatus, now time.Time) AckMessage {
	deviceID := cmd.DeviceID
	if deviceID == "" {
		deviceID = address
	}
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: now.UTC(),
		DeviceID:  deviceID,
		Status:    status,
		Protocol:  Protocol,
		Address:   address,
	}
}

func newAckError(cmd CommandMessage, address, code, message string, now time.Time) AckMessage {
	ack := newAck(cmd, address, AckFailed, now)
	ack.Error = &AckError{Code: code, Message: message}
	return ack
}
