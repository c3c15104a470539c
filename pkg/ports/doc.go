/*
Package ports defines the driven ports (interfaces) of the AutiConnect core.

These interfaces decouple the dialog engine from storage, locking and the AI
mediation backend, so each concern can be swapped per deployment and verified with
the shared contract suites in this package.

# Key Interfaces

  - Repository: committed Users, Groups and Activities.
  - SessionStore: ephemeral per-user dialog sessions.
  - DistributedLocker: cross-replica serialization of a user's events.
  - Mediator: the black-box AI mediation call.
*/
package ports
