/*
Package ports defines the driven and driving ports (interfaces) of the Spindle engine.

These interfaces decouple the dialog runtime from external implementations, allowing
runners to keep variables in memory or Redis and hosts to load scripts from any library.

# Key Interfaces

  - StateContext: boolean variable storage read by conditions and written by <<set>>.
  - ScriptLoader: retrieves dialog scripts by ID (e.g., from Loam or Memory).
  - DialogRunner: what HTTP, MCP and the player loop drive.
  - DistributedLocker: distributed locking for concurrent session access.
*/
package ports
