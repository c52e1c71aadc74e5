// Package redis provides Redis-backed adapters: a shared StateContext for
// dialog variables and a DistributedLocker for session coordination.
package redis
