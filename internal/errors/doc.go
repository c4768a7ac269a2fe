// Package errors provides structured, coded errors for vtree.
//
// Every failure the engine reports carries a stable code (e.g. "E101") that
// maps to a category, a short message and a longer explanation. Errors can be
// enriched with a source location (template documents), a hint and a wrapped
// cause, and rendered for terminals with Format.
//
// # Categories
//
//   - template: construction errors raised while compiling templates
//   - compute: failures inside a node's recompute step
//   - lifecycle: destroy, hook, event handler and component init failures
//   - sync: output tree consistency problems found while patching
//   - document: invalid template documents
//   - config: invalid or missing vtree.json
//   - publish: snapshot upload failures
//
// # Usage
//
//	err := errors.New("E102").
//	    WithDetail("no component named \"card\" is registered").
//	    WithSuggestion("Register the definition with the engine's component registry")
//
//	fmt.Println(err.Format())
package errors
