// Package receiver orchestrates a CRSF serial receiver link.
package receiver

// The Controller owns the serial port lifecycle, drives the frame
// decoder, keeps the latest channel and link state, time-slices
// outbound telemetry against reception and derives flight-mode events
// from channel thresholds.
//
// The model is single-threaded cooperative polling: ProcessFrames must
// be called repeatedly and promptly by one caller, callbacks run inline
// on that caller, and nothing in this package blocks or locks. Run is
// provided as a convenience ticker loop around ProcessFrames for
// callers without their own control loop.
