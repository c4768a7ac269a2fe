// Package tree implements the reactive node tree: templates compile into
// nodes, and rendering recomputes nodes and patches an output document.
//
// A render runs in three passes. The compute pass calls each node's
// recompute step in pre-order; a node whose output shape changed sets its
// reflow flag. The sync pass then walks down from the nearest node owning
// output and places the output handles of each node's boundary descendants
// into its container, replacing runs of reflowed nodes and trimming runs
// of unchanged ones. The last pass clears the reflow flags.
//
// Example:
//
//	engine := tree.NewEngine(tree.WithLogger(logger))
//	root := engine.NewRoot(nil)
//	disabled := expr.NewReference[any](false)
//	root.Compile(tree.Element("button", &tree.Options{
//	    Attrs: map[string]any{"disabled": disabled},
//	}, tree.Text("Save")))
//	root.Mount(container, true)
//
//	disabled.TrySet(true)
//	root.Render()
package tree
