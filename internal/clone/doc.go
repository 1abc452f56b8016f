// Package clone implements the duplication-arrangement core of refclone.
//
// Given a set of source references, a copy count, an offset vector and an
// optional grouping policy, the package decides what to create, where to
// place it, what to call it and how to group it. Every scene mutation goes
// through the Host interface; nothing here knows how a scene is stored.
//
// The pieces are usable on their own:
//
//   - DeriveNamespace picks the namespace for the copies of one source.
//   - ComputePosition places copy k at anchor + offset*(k+1).
//   - Partition splits the sorted new identifiers into fixed-size chunks.
//   - SortKey strategies order the new identifiers before partitioning.
//
// Orchestrator ties them together and drives a Host through one clone pass.
package clone
