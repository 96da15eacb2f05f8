// Package mqtt provides MQTT client connectivity for the Gray Logic bridges.
//
// Bridges talk to the rest of Gray Logic only through the broker:
//
//	Comfort Cloud ◄─HTTPS─► comfortcloud bridge ◄─MQTT─► Mosquitto ◄─MQTT─► Gray Logic Core
//
// The client reconnects with backoff, restores subscriptions after a
// reconnect, recovers from handler panics and maintains a retained
// online/offline record (with a Last Will) on graylogic/system/status/{client_id}.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.BridgeCommands("comfortcloud"), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(mqtt.AddressFromTopic(topic), payload)
//	    })
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) when the broker is not on localhost
//   - Payloads carry device state only, never cloud credentials
package mqtt
