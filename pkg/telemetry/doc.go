// Package telemetry reports render metrics to Prometheus.
//
// Metrics collected:
//   - vtree_renders_total: renders by node kind and status
//   - vtree_render_duration_seconds: render duration by node kind
//   - vtree_compute_errors_total: failed recomputes by node kind
//   - vtree_output_mutations_total: output tree mutations by type
//   - vtree_structural_mismatches_total: mismatches repaired during sync
//   - vtree_nodes_compiled_total: compiled nodes by kind
//
// Example:
//
//	m := telemetry.New(telemetry.WithNamespace("docs"))
//	engine := tree.NewEngine(tree.WithMetrics(m))
//	http.Handle("/metrics", promhttp.Handler())
package telemetry
