/*
Package domain contains the core entities of the AutiConnect conversational core.

It defines the committed data (Users, Groups, Activities), the ephemeral per-user
dialog Session, and the transport-neutral Event and Reply envelopes. The package is
kept pure and free of I/O so that every adapter can depend on it.

# Key Entities

  - User: a registered person, either a Participant (with a Profile) or a Facilitator.
  - Group: a support group owned by a Facilitator, bounded by MaxMembers.
  - Activity: a scheduled activity inside a Group.
  - Session: the scratch space of an in-progress multi-step dialog.
  - Event / Reply: what a transport sends in and what it renders back.
*/
package domain
