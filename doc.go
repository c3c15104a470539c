/*
Package auticonnect is the conversational core of AutiConnect, a safe space for
autistic people and their therapeutic assistants (ATs) with AI mediation.

# Concept

Every inbound message becomes a transport-neutral domain.Event. The Engine
serializes events per user, walks the user through multi-step dialogs
(registration, profile, group creation, activity creation), answers
informational commands and hands free text to a mediation gateway. Transports
(HTTP, WebSocket, console, MCP) only translate events and replies.

# Key Features

  - Declarative dialogs: each dialog is a validated step table; a single
    interpreter drives them all.
  - At-most-once commits: a completed dialog is written once and its session is
    cleared under the same per-user lock.
  - Swappable stores: in-memory or SQLite for the domain, in-memory or Redis
    for sessions, verified by shared contract suites.
  - Observable: lifecycle hooks feed Prometheus metrics and slog.

# Usage

	repo := memory.NewRepository()
	eng, err := auticonnect.New(repo, memory.NewSessionStore(),
		auticonnect.WithMediator(mediation.NewCanned()),
	)
	if err != nil {
		log.Fatal(err)
	}

	reply, err := eng.Handle(ctx, domain.Command("42", "start"))
	// reply.Text asks for the user's name.
	reply, err = eng.Handle(ctx, domain.Text("42", "Ana"))
	// reply.Buttons offers the roles.

Handle always returns a reply that can be shown to the user; the error only
classifies the outcome for logging.
*/
package auticonnect
