// Package types defines the board and trash entities, the configuration
// structure, and the standard errors shared by the Mega Kanban engines,
// stores, and CLI.
//
// A board is an ordered slice of Column values; each Column owns an ordered
// slice of Block values. Deleted columns and blocks move into a TrashBin
// where they carry their deletion time until they are restored or expire.
package types
