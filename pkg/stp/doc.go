// Package stp decodes MIPI System Trace Protocol (STPv2) streams.
package stp

// STP multiplexes trace data from many masters and channels into a single
// stream of 4-bit opcodes. Each byte carries two nibbles, low nibble first,
// and every multi-nibble value is sent most significant nibble first.
//
// The Decoder keeps its parse state between calls so packets may be split
// anywhere in the byte stream. A trace typically starts mid-packet, so the
// decoder can be told to wait for an ASYNC packet, either initially using
// Config.StartOutOfSync or at any time using SyncLoss.
//
// Timestamps are deltas: each timestamp group adds to a running
// timestamp which is reported with the packet.
