// Package sched synthesizes the single evaluation procedure of a design.
//
// Schedule is the entry point. At a high level the process is:
//
//   - Prepare timing resume/commit logic and external domains for
//     variables written by suspendable processes
//   - Gather and classify all logic by what triggers its execution
//   - Emit static, initial and final logic in source order
//   - Break combinational cycles by introducing hybrid logic
//   - Create the settle phase that restores the combinational invariant
//   - Partition the clocked and combinational (including hybrid) logic
//     into pre/act/nba
//   - Replicate combinational logic across regions where needed
//   - Create the input combinational loop
//   - Create the pre/act/nba trigger kits
//   - Order each region's logic into its evaluation procedure
//   - Bolt everything together into the top-level _eval procedure
//   - Flatten forks into independently callable coroutine procedures
//
// Regions converge through one primitive, makeEvalLoop: compute the
// region's trigger vector, and while any bit is set run the region body,
// counting iterations against the configured limit. Regions communicate
// only by OR-latching fired bits into the next outer region's vector.
//
// Classification, cycle breaking, partitioning, replication and the
// dependency-ordering engine are collaborator seams on Deps; each has a
// simple encounter-order default. Collaborator contract violations panic;
// user-facing problems go through the diag reporter.
package sched
