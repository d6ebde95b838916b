// Package fault provides tagged errors for the beacon-go primitives.
//
// Every failure surfaced by the jsonclient and poll packages is a *fault.Error
// carrying a Kind plus structured context fields. Callers are expected to
// branch on the kind, never on message text:
//
//	_, err := executor.Execute(ctx, conn, nil, nil)
//	if fault.IsKind(err, fault.Timeout) {
//	    // back off and try again later
//	}
//
// A Factory binds a zerolog logger to error creation so every minted failure
// is recorded with its context fields. The factory is injected into both
// primitives at construction; there is no package-global state.
package fault
