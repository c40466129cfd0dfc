// Package session serializes access to the shared session document.
//
// Each session has exactly one State; the Manager guards it with a
// per-session lock (garbage collected by reference counting) so that agent
// commits and client snapshot applications never interleave. Updates are
// whole-document replaces: the most recent snapshot wins entirely, there is
// no field-level merge.
package session
