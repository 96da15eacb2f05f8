// Package comfortcloud bridges Panasonic Comfort Cloud air-conditioning
// units to the Gray Logic MQTT bus.
//
// The bridge talks HTTPS to the cloud through an authenticated session
// (package cloudauth) and MQTT to Core:
//
//	Core ──command──► graylogic/command/comfortcloud/{address}
//	     ◄──ack────── graylogic/ack/comfortcloud/{address}
//	     ◄──state──── graylogic/state/comfortcloud/{address}   (retained)
//	     ◄──health─── graylogic/health/comfortcloud            (retained)
//
// Units are listed once from /device/group and re-listed periodically. Each
// poll reads /deviceStatus/now/{guid}; a state message is published only
// when the decoded state differs from the last one. Every reading is also
// written to InfluxDB when telemetry is configured.
//
// Addresses are derived from the device GUID (see AddressFor) since GUIDs
// may contain characters that are not safe in topic levels.
//
// # Commands
//
//	on, off
//	set_mode         {"mode": "auto|dry|cool|heat|fan"}
//	set_temperature  {"temperature": 21.5}
//	set_fan_speed    {"fan_speed": "auto|low|low_mid|mid|high_mid|high"}
//	set_eco          {"eco": "auto|powerful|quiet"}
//	set_swing        {"vertical": "...", "horizontal": "..."}
//
// Each command is answered with an accepted or failed acknowledgement and,
// on success, an immediate status read-back.
package comfortcloud
