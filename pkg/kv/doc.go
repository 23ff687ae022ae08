// Package kv provides the key-value persistence used to resume respondent
// sessions.
//
// # Overview
//
// A Store holds JSON-serializable values under string keys. Two
// implementations are provided: RedisStore for shared deployments where
// several survey hosts and the admin channel share one Redis server, and
// SQLiteStore for single-machine runs.
//
// # Key Schema
//
// Keys are namespaced by session so many respondents can share one store:
//
//	warren:{session}:progress
//	warren:{session}:ghost
//	warren:{session}:poolseed
//	warren:{session}:rows:{storage}_{count}
//	warren:{session}:rows:{storage}_{count}_finish_code
//
// The row collection key embeds the scenario count, so a session persisted
// against a different flow definition is never mixed with the current one.
//
// Admin commands travel on the Pub/Sub channel warren:{session}:admin_commands.
//
// # Usage Example
//
//	store, err := kv.NewRedisStore(&redis.Options{Addr: "localhost:6379"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	var st progress.State
//	err = store.Get(ctx, kv.ProgressKey("resp-1"), &st)
//	if kv.IsNotFound(err) {
//		// fresh session
//	}
package kv
