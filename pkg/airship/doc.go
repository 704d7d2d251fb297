// Package airship provides an embeddable forwarder for serial air-quality
// sensors.
//
// Airship reads the sensor's byte stream, extracts the JSON objects it emits
// between line noise, stamps each with a local Time and appends it to a log
// file. A fixed-shape payload (co2, humidity, pm1_0, pm2_5, pm10_0,
// temperature) is then posted to an HTTP endpoint. Delivery is best-effort:
// a failed POST is logged and the record stays in the local log.
//
// # Basic Usage
//
//	cfg := airship.DefaultConfig()
//	cfg.Device = "/dev/ttyACM0"
//	cfg.EndpointURL = "http://localhost:8000/api/sensor-data/"
//
//	a, err := airship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	select {
//	case <-sigCh:
//	    _ = a.Stop()
//	case <-a.Done():
//	    // replay finished or the forwarder crashed; see a.Err()
//	}
//
// # Sources
//
// By default the serial device in [Config.Device] is opened once at startup;
// failure to open it, or losing it mid-run, crashes the run with
// [ErrSourceUnavailable]. Set
// [Config.ReplayFile] to feed a captured dump through the same pipeline, or
// inject any [Source] with [WithSource].
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler]) and pass it via
// [WithEventHandler] to observe records, parse errors, overflow and delivery
// outcomes.
//
// # Lifecycle States
//
// An Airship instance can be in one of five states: [StateStopped],
// [StateStarting], [StateRunning], [StateStopping], or [StateCrashed]. Use
// [Airship.State] to query it and [Airship.Status] for counters and the
// latest record.
package airship
