/*
Package observability provides lifecycle hooks for monitoring dialog runners.

Metrics feeds Prometheus counters; LoggingHooks writes an audit trail to a
slog.Logger. Combine merges several hook sets for a single runner.
*/
package observability
