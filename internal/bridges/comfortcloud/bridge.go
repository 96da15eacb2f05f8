package comfortcloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-bridges/internal/cloudauth"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/mqtt"
)

const (
	defaultPollInterval = 60 * time.Second

	// commandTimeout bounds one control round trip including a possible login.
	commandTimeout = 30 * time.Second

	// deviceRefreshPolls is how many polls may pass without a successful
	// device list refresh.
	deviceRefreshPolls = 60
)

// Bridge connects Comfort Cloud air-conditioning units to MQTT.
//
// It polls unit status, publishes retained state on change, and turns
// MQTT commands into control requests. Thread Safety: all methods are safe
// for concurrent use.
type Bridge struct {
	api       *API
	mqtt      Publisher
	telemetry Telemetry
	sink      StateSink
	health    *HealthReporter

	pollInterval time.Duration
	now          func() time.Time

	// devices maps MQTT address to unit.
	devices           map[string]Device
	devicesMu         sync.RWMutex
	pollsSinceRefresh int

	// states and stateSeq are guarded by statesMu. publishMu orders
	// store-then-publish so retained state follows the newest reading.
	states    map[string]StateMessage
	stateSeq  map[string]uint64
	statesMu  sync.RWMutex
	publishMu sync.Mutex
	readSeq   atomic.Uint64

	polls            atomic.Uint64
	pollErrors       atomic.Uint64
	commandsAccepted atomic.Uint64
	commandsFailed   atomic.Uint64
	lastPoll         atomic.Pointer[time.Time]
	lastPollOK       atomic.Bool

	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

// Publisher is the MQTT surface the bridge needs. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Telemetry records unit readings. *influxdb.Client satisfies it.
type Telemetry interface {
	WriteClimateSample(s influxdb.ClimateSample)
	WriteBridgePoll(protocol string, devices int, duration time.Duration, ok bool)
}

// StateSink receives every published state change.
type StateSink interface {
	DeviceStateChanged(msg StateMessage)
}

// Logger is the structured logger the bridge writes to.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds what a Bridge needs.
type Options struct {
	BridgeID string
	Version  string

	// API is the device API, normally over a *cloudauth.Session.
	API *API

	// Session reports token state to the health reporter.
	Session SessionState

	Publisher Publisher

	// Telemetry and Sink are optional.
	Telemetry Telemetry
	Sink      StateSink

	PollInterval   time.Duration
	HealthInterval time.Duration
	Logger         Logger
}

// NewBridge creates a bridge. Call Start to begin operation.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("device API is required")
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("MQTT publisher is required")
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		api:          opts.API,
		mqtt:         opts.Publisher,
		telemetry:    opts.Telemetry,
		sink:         opts.Sink,
		pollInterval: interval,
		now:          time.Now,
		devices:      make(map[string]Device),
		states:       make(map[string]StateMessage),
		stateSeq:     make(map[string]uint64),
		done:         make(chan struct{}),
		ctx:          ctx,
		ctxCancel:    cancel,
		logger:       opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  opts.BridgeID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.Publisher,
		Session:   opts.Session,
		Stats:     b.Statistics,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start subscribes to commands and starts polling and health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	topic := mqtt.Topics{}.BridgeCommands(Protocol)
	if err := b.mqtt.Subscribe(topic, 1, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", topic)

	b.health.Start(ctx)

	b.wg.Add(1)
	go b.pollLoop(ctx)

	b.logInfo("bridge started", "poll_interval", b.pollInterval)
	return nil
}

// Stop cancels in-flight work, waits for the poll loop and publishes a
// final "stopping" health status. Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.ctxCancel()
		b.wg.Wait()
		b.health.Stop()
		b.logInfo("bridge stopped")
	})
}

// SetLogger sets the logger for the bridge and its health reporter.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
	b.health.SetLogger(logger)
}

// Health returns the current health report without publishing it.
func (b *Bridge) Health() HealthMessage {
	return b.health.Current()
}

// States returns the last known state of every unit, ordered by address.
func (b *Bridge) States() []StateMessage {
	b.statesMu.RLock()
	out := make([]StateMessage, 0, len(b.states))
	for _, s := range b.states {
		out = append(out, s)
	}
	b.statesMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Statistics returns the bridge counters.
func (b *Bridge) Statistics() Statistics {
	s := Statistics{
		Polls:            b.polls.Load(),
		PollErrors:       b.pollErrors.Load(),
		CommandsAccepted: b.commandsAccepted.Load(),
		CommandsFailed:   b.commandsFailed.Load(),
		LastPollOK:       b.lastPollOK.Load(),
	}
	if t := b.lastPoll.Load(); t != nil {
		last := *t
		s.LastPoll = &last
	}
	return s
}

func (b *Bridge) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	ctx, cancel := b.mergedContext(ctx)
	defer cancel()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	b.Poll(ctx)
	if err := b.health.PublishNow(); err != nil {
		b.logError("failed to publish health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Poll(ctx)
		}
	}
}

// mergedContext returns a context cancelled by ctx or by Stop.
func (b *Bridge) mergedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(b.ctx, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

// Poll runs one poll cycle: refresh the device list when due, then read
// and publish the status of every unit.
func (b *Bridge) Poll(ctx context.Context) {
	start := b.now()
	b.polls.Add(1)

	devices, err := b.devicesForPoll(ctx)
	if err != nil {
		b.finishPoll(start, 0, false)
		if ctx.Err() == nil {
			b.logError("failed to list devices", err)
		}
		return
	}

	ok := true
	for _, dev := range devices {
		if ctx.Err() != nil {
			return
		}
		if err := b.pollDevice(ctx, dev.address, dev.Device); err != nil {
			ok = false
			b.logWarn("failed to read device status", "address", dev.address, "error", err)
		}
	}
	b.finishPoll(start, len(devices), ok)
}

func (b *Bridge) finishPoll(start time.Time, devices int, ok bool) {
	if !ok {
		b.pollErrors.Add(1)
	}
	b.lastPoll.Store(&start)
	b.lastPollOK.Store(ok)
	b.health.SetDeviceCount(devices)

	if b.telemetry != nil {
		b.telemetry.WriteBridgePoll(Protocol, devices, b.now().Sub(start), ok)
	}
}

type addressedDevice struct {
	address string
	Device
}

// devicesForPoll returns the known units. The list is loaded from the cloud
// while none are known and again once deviceRefreshPolls polls have passed
// since the last successful refresh. A failed refresh with units already
// known polls those units and retries on the next poll.
func (b *Bridge) devicesForPoll(ctx context.Context) ([]addressedDevice, error) {
	b.devicesMu.Lock()
	known := len(b.devices) > 0
	due := !known || b.pollsSinceRefresh >= deviceRefreshPolls
	if !due {
		b.pollsSinceRefresh++
	}
	b.devicesMu.Unlock()

	if due {
		if err := b.RefreshDevices(ctx); err != nil {
			if !known || ctx.Err() != nil {
				return nil, err
			}
			b.logWarn("device list refresh failed, polling known units", "error", err)
		}
	}

	b.devicesMu.RLock()
	defer b.devicesMu.RUnlock()

	out := make([]addressedDevice, 0, len(b.devices))
	for addr, d := range b.devices {
		out = append(out, addressedDevice{address: addr, Device: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].address < out[j].address })
	return out, nil
}

// RefreshDevices reloads the unit list from the cloud.
func (b *Bridge) RefreshDevices(ctx context.Context) error {
	devices, err := b.api.Devices(ctx)
	if err != nil {
		return err
	}

	mapped := make(map[string]Device, len(devices))
	for _, d := range devices {
		addr := uniqueAddress(mapped, AddressFor(d.GUID))
		mapped[addr] = d
	}

	b.devicesMu.Lock()
	b.devices = mapped
	b.pollsSinceRefresh = 0
	b.devicesMu.Unlock()

	b.statesMu.Lock()
	for addr := range b.states {
		if _, ok := mapped[addr]; !ok {
			delete(b.states, addr)
			delete(b.stateSeq, addr)
		}
	}
	b.statesMu.Unlock()

	b.logDebug("device list refreshed", "devices", len(mapped))
	return nil
}

// AddressFor derives an MQTT-safe address from a device GUID: lower case,
// with every run of characters outside [a-z0-9] replaced by one '-'.
func AddressFor(guid string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(guid) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

func uniqueAddress(taken map[string]Device, addr string) string {
	if _, ok := taken[addr]; !ok {
		return addr
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", addr, i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// pollDevice reads one unit. The sequence number is taken before the
// request, so a reading started earlier never replaces a later one.
func (b *Bridge) pollDevice(ctx context.Context, address string, dev Device) error {
	seq := b.readSeq.Add(1)
	params, err := b.api.Status(ctx, dev.GUID)
	if err != nil {
		return err
	}
	b.updateState(address, dev, seq, stateFromParameters(params))
	return nil
}

// updateState records a reading and publishes it when it differs from the
// last one. Telemetry is written for every reading; readings older than the
// stored one are not stored or published.
func (b *Bridge) updateState(address string, dev Device, seq uint64, state UnitState) {
	now := b.now()

	if b.telemetry != nil {
		b.telemetry.WriteClimateSample(influxdb.ClimateSample{
			DeviceID: address,
			Name:     dev.Name,
			Power:    state.Power == PowerOn.String(),
			Mode:     state.Mode,
			FanSpeed: state.FanSpeed,
			TargetC:  state.TargetTemperature,
			InsideC:  state.InsideTemperature,
			OutsideC: state.OutsideTemperature,
			Time:     now,
		})
	}

	msg := StateMessage{
		DeviceID:  address,
		Name:      dev.Name,
		Model:     dev.Model,
		Timestamp: now.UTC(),
		State:     state,
		Protocol:  Protocol,
		Address:   address,
	}

	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.statesMu.Lock()
	if seq < b.stateSeq[address] {
		b.statesMu.Unlock()
		b.logDebug("discarding superseded reading", "address", address)
		return
	}
	b.stateSeq[address] = seq
	prev, seen := b.states[address]
	if seen && prev.State.Equal(state) {
		b.statesMu.Unlock()
		return
	}
	b.states[address] = msg
	b.statesMu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal state", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.BridgeState(Protocol, address), payload, 1, true); err != nil {
		b.logError("failed to publish state", err)
	}
	if b.sink != nil {
		b.sink.DeviceStateChanged(msg)
	}
	b.logDebug("device state changed", "address", address, "power", state.Power, "mode", state.Mode)
}

// handleCommand runs on the MQTT client's goroutine for each command.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	address := mqtt.AddressFromTopic(topic)

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.publishAckError(cmd, address, ErrCodeInvalidCommand, "malformed command payload")
		return fmt.Errorf("parse command: %w", err)
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"address", address,
		"command", cmd.Command)

	b.devicesMu.RLock()
	dev, ok := b.devices[address]
	b.devicesMu.RUnlock()
	if !ok {
		b.publishAckError(cmd, address, ErrCodeNotConfigured, fmt.Sprintf("device %s not known", address))
		return fmt.Errorf("%w: %s", ErrUnknownDevice, address)
	}

	params, err := commandParameters(cmd)
	if err != nil {
		code := ErrCodeInvalidParameters
		if errors.Is(err, ErrInvalidCommand) {
			code = ErrCodeInvalidCommand
		}
		b.publishAckError(cmd, address, code, err.Error())
		return err
	}

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	if err := b.api.Control(ctx, dev.GUID, params); err != nil {
		code := ErrCodeCloudUnreachable
		if errors.Is(err, ErrControlRejected) {
			code = ErrCodeRejected
		}
		b.publishAckError(cmd, address, code, controlFailureMessage(err))
		return fmt.Errorf("control %s: %w", address, err)
	}

	b.commandsAccepted.Add(1)
	b.publishAck(newAck(cmd, address, AckAccepted, b.now()))

	// Read back so state reflects the change without waiting for the next poll.
	if err := b.pollDevice(ctx, address, dev); err != nil {
		b.logWarn("failed to read back device status", "address", address, "error", err)
	}
	return nil
}

// controlFailureMessage hides session internals from acknowledgements.
func controlFailureMessage(err error) string {
	var authErr *cloudauth.AuthenticationError
	if errors.As(err, &authErr) {
		return "cloud login failed"
	}
	return err.Error()
}

func (b *Bridge) publishAckError(cmd CommandMessage, address, code, message string) {
	b.commandsFailed.Add(1)
	b.publishAck(newAckError(cmd, address, code, message, b.now()))
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.BridgeAck(Protocol, ack.Address), payload, 1, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}
