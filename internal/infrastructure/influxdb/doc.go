// Package influxdb writes bridge telemetry to InfluxDB v2.
//
// It wraps influxdb-client-go with connection checks, batched non-blocking
// writes and helpers for the measurements the bridges produce:
//
//   - climate: per-unit power, mode, fan speed and temperatures
//   - bridge_poll: device count, duration and outcome of each poll cycle
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer client.Close()
//
// Batch size and flush interval come from config.yaml. Async write errors
// reach the SetOnError callback; connection errors are returned directly.
package influxdb
