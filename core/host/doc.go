// Package host provides Silo, an in-process host for actors defined with
// package actor.
//
// A Silo activates actors on first use, runs every call for one identity
// as a separate, non-overlapping turn, delivers in-memory reminders and
// deactivates idle actors:
//
//	silo := host.New(host.Options{Logger: log, Config: cfg})
//	_ = silo.Register(bulbs)
//	silo.Start(ctx)
//	defer silo.Stop(context.Background())
//
//	res, err := silo.Ask(ctx, actor.NewIdentity("lightbulb", "kitchen"), Toggle{})
//
// A Silo has no placement, transport or persistence. Reminders live as
// long as the activation that registered them.
//
// # Self-Request Detection
//
// A handler that asks its own identity would wait for its own turn to
// finish. Such calls fail with [ErrSelfRequest].
package host
