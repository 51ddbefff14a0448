/*
Package metrics provides Prometheus metrics collection, health checks, and
timing helpers for vectord.

Metrics are registered at package init against the default Prometheus
registry and exposed via Handler(). A Collector periodically samples a
registry's index list to publish gauges that have no natural "on change"
hook (index count, item count, capacity per index); everything else
(commands, queries, connections) is incremented directly at the call
site.

# Usage

	http.Handle("/metrics", metrics.Handler())
	http.HandleFunc("/health", metrics.HealthHandler())
	http.HandleFunc("/ready", metrics.ReadyHandler())
	http.HandleFunc("/live", metrics.LivenessHandler())

	collector := metrics.NewCollector(reg)
	collector.Start(15 * time.Second)
	defer collector.Stop()

	metrics.RegisterComponent(metrics.ComponentStorage, true, "")
	metrics.RegisterComponent(metrics.ComponentRegistry, true, "")
	metrics.RegisterComponent(metrics.ComponentServer, true, "")

# Timing

	timer := metrics.NewTimer()
	labels, dists, err := reg.QueryIndex(name, vectors, k)
	timer.ObserveDuration(metrics.QueryDuration)
*/
package metrics
