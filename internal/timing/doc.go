// Package timing models the subtitle timing table handed to the downstream
// renderer. It carries the segment type shared by the mastering and alignment
// stages, the final optimization pass (display-duration bounds, long-text
// splitting, overlap removal), and SRT/JSON serialization.
package timing
