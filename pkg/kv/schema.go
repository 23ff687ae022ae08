package kv

import "fmt"

// Key pattern helpers
//
// Key pattern: warren:{session}:{entity}
// Channel pattern: warren:{session}:admin_commands

// DefaultStorageName is the row collection name used when none is configured.
const DefaultStorageName = "resp_followups_v1"

// Namespace prefixes every key written by warren.
const Namespace = "warren:"

// SessionPrefix returns the prefix shared by every key of a session.
// Pattern: warren:{session}:
func SessionPrefix(session string) string {
	return Namespace + session + ":"
}

// ProgressKey returns the key holding the progress state.
// Pattern: warren:{session}:progress
func ProgressKey(session string) string {
	return SessionPrefix(session) + "progress"
}

// GhostKey returns the key holding the ghost-mode flag.
// Pattern: warren:{session}:ghost
func GhostKey(session string) string {
	return SessionPrefix(session) + "ghost"
}

// PoolSeedKey returns the key holding the respondent's pool seed.
// Pattern: warren:{session}:poolseed
func PoolSeedKey(session string) string {
	return SessionPrefix(session) + "poolseed"
}

// RowsKey returns the key of the answer row collection. The scenario count is
// part of the key so a flow-definition change starts a fresh collection.
// Pattern: warren:{session}:rows:{storage}_{count}
func RowsKey(session, storage string, count int) string {
	if storage == "" {
		storage = DefaultStorageName
	}
	return fmt.Sprintf("%srows:%s_%d", SessionPrefix(session), storage, count)
}

// FinishCodeKey returns the key holding the generated completion code.
// Pattern: warren:{session}:rows:{storage}_{count}_finish_code
func FinishCodeKey(session, storage string, count int) string {
	return RowsKey(session, storage, count) + "_finish_code"
}

// AdminChannel returns the Pub/Sub channel carrying admin commands.
// Pattern: warren:{session}:admin_commands
func AdminChannel(session string) string {
	return SessionPrefix(session) + "admin_commands"
}
