// Package script models dialogue scripts and parses them from the two source
// formats Cadence accepts: a JSON array of {speaker, text} objects and a plain
// text scenario with "Speaker: line" rows. Free-form speaker labels are
// normalized to the two renderer roles once at parse time so the rest of the
// pipeline never sees source labels.
package script
