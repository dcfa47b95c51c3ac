// Package launcher starts external executables on behalf of a caller.
// It is self-contained and can be used by any Go application that needs to
// run programs either fire-and-forget or with their output streamed back.
//
// The package provides two launch modes:
//   - Detached: the program runs in its own process group with stdio bound
//     to the null device; the caller only gets its PID back.
//   - Captured: stdout and stderr are piped into a Session that delivers
//     output chunks, error chunks and a single exit event over a channel.
//
// Events of a captured Session are never delivered from the launcher's own
// goroutines into caller code. The caller either receives from
// Session.Events on a goroutine it owns (a UI event loop, for example) or
// calls Session.Wait, which dispatches to a Handler on the calling goroutine.
//
// Example usage:
//
//	l := launcher.New()
//
//	session, err := l.LaunchCaptured(ctx, "/bin/echo", []string{"hi"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = session.Wait(ctx, launcher.HandlerFuncs{
//	    Output: func(chunk string) { fmt.Print(chunk) },
//	    Error:  func(chunk string) { fmt.Fprint(os.Stderr, chunk) },
//	    Exit:   func(code int) { fmt.Println("exit", code) },
//	})
package launcher
