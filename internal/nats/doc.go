// Package nats exposes a livecast instance on NATS.
//
// # Architecture
//
//   - Server: embedded NATS server, started when no external URL is configured
//   - Bridge: runs inside the instance; feeds the stats store, serves control
//     requests and mirrors session events
//   - Client: used by the CLI and by stats producers to talk to an instance
//
// # Subject Hierarchy
//
//	livecast.stats                         # stats snapshot (producer → instance)
//	livecast.control.start                 # start request (request-reply)
//	livecast.control.stop                  # stop request (request-reply)
//	livecast.events.session.started        # session started (instance → subscribers)
//	livecast.events.session.stopped        # session stopped
//	livecast.events.encoder.exited         # encoder exited on its own
//
// Stats and events use core NATS fire-and-forget publishing; control uses
// request-reply so the caller gets the localized result message.
//
// # Debugging with nats CLI
//
// Monitor everything the instance emits:
//
//	nats sub "livecast.events.>"
//
// Start and stop a stream:
//
//	nats req livecast.control.start '{"destination":"udp://127.0.0.1:1234","bitrate":5000}'
//	nats req livecast.control.stop ''
//
// Push a stats snapshot:
//
//	nats pub livecast.stats '{"bitrate":4980,"fps":29.97,"dropped_frames":0,"network_quality":"Good","uptime_seconds":120}'
//
// # Message Formats
//
// StatsMessage (livecast.stats):
//
//	{
//	  "bitrate": 4980,
//	  "fps": 29.97,
//	  "dropped_frames": 0,
//	  "network_quality": "Good",
//	  "uptime_seconds": 120
//	}
//
// CommandReply (reply to livecast.control.*):
//
//	{
//	  "ok": false,
//	  "code": "ALREADY_ACTIVE",
//	  "message": "Stream já está ativo"
//	}
//
// Event subjects carry the JSON form of the matching events package type.
package nats
