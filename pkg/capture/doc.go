// Package capture implements a simple framed format for recorded STP
// trace, preserving chunk boundaries and sync loss events reported by
// the capture hardware.
package capture
