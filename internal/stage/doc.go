// Package stage defines the error taxonomy shared by renderer stages.
// Sentinel markers classify failures (external tool, validation, timeout,
// transient) and Wrap attaches stage and operation context so a single log
// line explains where a render went wrong.
package stage
