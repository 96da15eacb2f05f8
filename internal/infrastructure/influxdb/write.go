package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the bridges.
const (
	MeasurementClimate    = "climate"
	MeasurementBridgePoll = "bridge_poll"
)

// ClimateSample is one polled reading of an air-conditioning unit.
// Nil temperatures are unavailable readings and are not written.
type ClimateSample struct {
	DeviceID string
	Name     string
	Power    bool
	Mode     string
	FanSpeed string

	TargetC  *float64
	InsideC  *float64
	OutsideC *float64

	Time time.Time
}

// WriteClimateSample records a unit reading. Non-blocking.
//
// Example:
//
//	client.WriteClimateSample(influxdb.ClimateSample{
//	    DeviceID: "CS-Z25VKEW+123", Power: true, Mode: "heat", InsideC: &inside,
//	})
func (c *Client) WriteClimateSample(s ClimateSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(climatePoint(s))
}

// WriteBridgePoll records the outcome of one poll cycle.
func (c *Client) WriteBridgePoll(protocol string, devices int, duration time.Duration, ok bool) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(pollPoint(protocol, devices, duration, ok, time.Now()))
}

// WritePointWithTime writes a custom point.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}

func climatePoint(s ClimateSample) *write.Point {
	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	tags := map[string]string{"device_id": s.DeviceID}
	if s.Name != "" {
		tags["name"] = s.Name
	}
	if s.Mode != "" {
		tags["mode"] = s.Mode
	}

	fields := map[string]interface{}{"power": s.Power}
	if s.FanSpeed != "" {
		fields["fan_speed"] = s.FanSpeed
	}
	if s.TargetC != nil {
		fields["target_c"] = *s.TargetC
	}
	if s.InsideC != nil {
		fields["inside_c"] = *s.InsideC
	}
	if s.OutsideC != nil {
		fields["outside_c"] = *s.OutsideC
	}

	return write.NewPoint(MeasurementClimate, tags, fields, ts)
}

func pollPoint(protocol string, devices int, duration time.Duration, ok bool, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementBridgePoll,
		map[string]string{"protocol": protocol},
		map[string]interface{}{
			"devices":     devices,
			"duration_ms": duration.Milliseconds(),
			"ok":          ok,
		},
		ts,
	)
}
