// Package position defines the identity of a cell detection.
//
// A [Position] is an (x, y, z, time point) value; it is comparable and used as
// the node key throughout the linking graph. [TimePoint] wraps a frame index.
// [Collection] groups positions per time point together with their
// [shape.Shape], which is the form in which detections are loaded from disk.
//
// Positions are ordered by [Compare]: time point first, then x, y and z. Every
// function in this module that returns a set of positions returns it in that
// order, so output is deterministic.
package position
