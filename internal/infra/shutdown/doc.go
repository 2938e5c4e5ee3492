// Package shutdown coordinates graceful termination of redikv-server.
//
// A Handler waits for SIGINT or SIGTERM (or an explicit Trigger), then runs
// the registered hooks in reverse order under a timeout:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	os.Exit(shutdown.ExitCode(h.Wait(ctx)))
package shutdown
