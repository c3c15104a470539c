/*
Package session implements per-user dialog session management.

The Manager is the single serialization point of the engine: every inbound event of
a user runs inside Manager.WithLock, so reads, validation and writes of that user's
session never interleave. Different users proceed concurrently. An optional
distributed locker extends the guarantee across replicas.

Sessions older than the configured TTL are treated as absent: Load evicts them
lazily and Sweep removes them in the background.
*/
package session
