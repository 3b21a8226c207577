// Package encoder runs the external encoder process behind a session.
//
// ProcessLauncher implements session.Launcher on top of os/exec:
//   - the child runs in its own process group
//   - stdout and stderr are logged line by line at the level ffmpeg reports
//   - Terminate sends SIGINT and returns; a watchdog kills the process group
//     if the encoder outlives the graceful timeout
//   - terminating an encoder that already exited succeeds
//
// Example:
//
//	launcher := encoder.NewProcessLauncher(encoder.Options{Binary: "ffmpeg"})
//	manager := session.NewManager(launcher)
//	if err := manager.Start(cfg); err != nil {
//	    return err
//	}
//	defer manager.Close()
package encoder
