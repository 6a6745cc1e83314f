// Package engine runs a patch: it owns every module and cable, advances the
// graph one frame at a time across a fixed pool of workers, and applies edits
// from other goroutines at block boundaries.
//
// A block goes through four phases. While the caller of Step holds the shared
// lock, queued smooth writes are applied, expander links are re-resolved and
// the schedule is rebuilt if the module set changed. Then every worker runs
// its modules for each frame, waits at a barrier, sums the cables into the
// inputs it owns, and waits again. Structural edits take the exclusive lock
// and so wait for at most one block.
//
// Each cable adds one frame of delay: outputs written during frame n are
// summed into inputs between frames and read at frame n+1. This is what
// keeps feedback loops stable and makes the result independent of how
// modules are split across workers.
package engine
