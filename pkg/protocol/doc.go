// Package protocol implements the binary wire format between a vdiff server
// and a remote UI surface.
//
// The server streams the calls a reconciler made on its delta sink as
// Deltas frames; the surface sends user input back as Event frames that name
// the handler attached to the target node.
//
// # Frame Format
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Encoding
//
// Node ids and handler ids are unsigned varints, strings are
// varint-length-prefixed UTF-8, booleans are a single 0x00/0x01 byte.
// Decoding enforces DefaultMaxAllocation and MaxCollectionCount so that a
// hostile length prefix cannot exhaust memory.
package protocol
