// Package preview serves a live-updating view of a template document.
//
// The server renders the document once, serves the markup and pushes the
// new markup over a WebSocket after every render. Renders are triggered by
// POST /state (merge JSON into state), POST /events/{alias}/{event} (run
// the event actions bound on an aliased element) and, with watching
// enabled, by edits to the document file.
//
// Routes:
//
//	GET  /                      page with the markup and the client script
//	GET  /fragment[?pretty]     markup only
//	GET  /state                 state as JSON
//	POST /state                 merge a JSON object into state
//	POST /events/{alias}/{event}
//	GET  /ws                    render stream
//	GET  /metrics               Prometheus metrics
package preview
