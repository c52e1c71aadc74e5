/*
Package session manages live dialog sessions for the network adapters.

Each session owns one runner and its variable store. Runners are not safe for
concurrent use, so the Manager serializes access per session with a
reference-counted local lock and, optionally, a distributed lock shared by
several replicas.
*/
package session
