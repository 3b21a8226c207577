// Package logging provides structured logging with per-module log levels.
//
// Initialize once at startup, then ask for a logger per component:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"session": "debug",
//			"encoder": "warn",
//		},
//	})
//
//	logger := logging.GetLogger("session")
//	logger.Info("Session started", "session_id", id)
//
// Records fan out to stdout (text or json), to the systemd journal when
// journald is reachable, and to an in-memory ring buffer that backs the
// /api/logs endpoint. Levels can be changed at runtime with Reconfigure;
// loggers already handed out follow the change.
//
// Journal entries use the identifier "livecast":
//
//	journalctl -t livecast MODULE=encoder
//	journalctl -t livecast SESSION_ID=<uuid>
package logging
