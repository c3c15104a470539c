/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
structured logs.

	metrics := observability.NewMetrics()
	hooks := observability.Combine(
		metrics.Hooks(),
		observability.LoggingHooks(logger),
	)
	eng, err := auticonnect.New(repo, store, auticonnect.WithLifecycleHooks(hooks))

Metrics owns its registry; serve it with Metrics.Handler.
*/
package observability
