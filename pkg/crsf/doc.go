// Package crsf implements the CRSF protocol frame layer.
package crsf

// CRSF (Crossfire) is a byte oriented serial protocol used by RC links
// (TBS Crossfire, ExpressLRS) to carry channel data downstream and
// telemetry upstream over a single asynchronous wire.
//
// This package owns the receive-side frame decoding: a byte-at-a-time
// state machine that extracts validated frames from the stream, unpacks
// the 11-bit packed RC channels and decodes link statistics. Frame
// scheduling, channel state and telemetry dispatch live one layer up in
// package receiver.
//
// Producer: RC receiver hardware
// Consumer: receiver.Controller
