// Package expr provides the reactive value holders used by the node tree.
//
// An Expression wraps a value together with the value it held before the most
// recent evaluation and a flag reporting whether that evaluation produced a
// different value. Nodes evaluate their expressions once per compute pass and
// use the flag to decide whether the output tree needs touching.
//
// # Variants
//
//   - Constant: a fixed value. Reports a change on its first evaluation only.
//   - Dynamic: wraps a getter. Every evaluation calls the getter and compares
//     the result with the previous value.
//   - Reference: either an independent cell written with TrySet, or bound to
//     another expression whose current value it mirrors.
//
// # Change Detection
//
// Changes are detected by identity, not by content. Scalars and strings compare
// with ==, slices compare by backing array and length, maps, pointers, channels
// and funcs compare by pointer. Two distinct slices with equal elements are
// therefore reported as changed:
//
//	a := []int{1, 2}
//	b := []int{1, 2}
//	expr.Identical(a, b) // false
//	expr.Identical(a, a) // true
//
// Changed is only meaningful immediately after an evaluation; it is not kept up
// to date between evaluations.
package expr
