package expr

// Expression is a reactive value holder with change tracking.
type Expression[T any] interface {
	// Evaluate recomputes the value and updates the change flag.
	Evaluate(args ...any) T

	// EvaluateChecked evaluates and reports whether the value changed.
	EvaluateChecked(args ...any) bool

	// Value returns the value produced by the last evaluation.
	Value() T

	// Previous returns the value held before the last evaluation.
	Previous() T

	// Changed reports whether the last evaluation produced a new value.
	Changed() bool

	// TrySet overrides the value. Only independent references accept it.
	TrySet(v T) bool
}

// cell holds the value/previous/changed triple shared by every variant.
type cell[T any] struct {
	value     T
	previous  T
	changed   bool
	evaluated bool
}

// commit stores v as the new value. The first commit always counts as a change.
func (c *cell[T]) commit(v T) T {
	c.previous = c.value
	c.value = v
	c.changed = !c.evaluated || !Identical(any(c.previous), any(v))
	c.evaluated = true
	return v
}

func (c *cell[T]) Value() T        { return c.value }
func (c *cell[T]) Previous() T     { return c.previous }
func (c *cell[T]) Changed() bool   { return c.changed }
func (c *cell[T]) TrySet(T) bool   { return false }
func (c *cell[T]) Evaluated() bool { return c.evaluated }

// =============================================================================
// Constant
// =============================================================================

// Constant is a fixed value. Its first evaluation reports a change, every
// later evaluation reports none.
type Constant[T any] struct {
	cell[T]
	fixed T
}

// NewConstant creates a constant expression.
func NewConstant[T any](v T) *Constant[T] {
	return &Constant[T]{fixed: v}
}

// Evaluate implements Expression.
func (c *Constant[T]) Evaluate(...any) T {
	if c.evaluated {
		c.previous = c.value
		c.changed = false
		return c.value
	}
	return c.commit(c.fixed)
}

// EvaluateChecked implements Expression.
func (c *Constant[T]) EvaluateChecked(args ...any) bool {
	c.Evaluate(args...)
	return c.changed
}

// =============================================================================
// Dynamic
// =============================================================================

// Getter computes a dynamic expression's value from the evaluation arguments.
type Getter[T any] func(args ...any) T

// Dynamic recomputes its value from a getter on every evaluation.
type Dynamic[T any] struct {
	cell[T]
	get Getter[T]
}

// NewDynamic creates a dynamic expression around get.
func NewDynamic[T any](get Getter[T]) *Dynamic[T] {
	return &Dynamic[T]{get: get}
}

// Func adapts a zero-argument function into a dynamic expression.
func Func[T any](fn func() T) *Dynamic[T] {
	return NewDynamic(func(...any) T { return fn() })
}

// Evaluate implements Expression.
func (d *Dynamic[T]) Evaluate(args ...any) T {
	return d.commit(d.get(args...))
}

// EvaluateChecked implements Expression.
func (d *Dynamic[T]) EvaluateChecked(args ...any) bool {
	d.Evaluate(args...)
	return d.changed
}

// =============================================================================
// Reference
// =============================================================================

// Reference is either an independent value cell or a mirror of another
// expression.
//
// An independent reference is written with TrySet; the written value becomes
// visible on the next evaluation. A bound reference copies the target's
// current value on each evaluation and refuses TrySet.
type Reference[T any] struct {
	cell[T]
	pending T
	target  Expression[T]
}

// NewReference creates an independent reference holding v.
func NewReference[T any](v T) *Reference[T] {
	return &Reference[T]{pending: v}
}

// BindTo creates a reference bound to target.
func BindTo[T any](target Expression[T]) *Reference[T] {
	return &Reference[T]{target: target}
}

// Bind attaches the reference to target. Passing nil makes it independent
// again, keeping the last mirrored value.
func (r *Reference[T]) Bind(target Expression[T]) {
	if target == nil && r.target != nil {
		r.pending = r.target.Value()
	}
	r.target = target
}

// Bound reports whether the reference mirrors another expression.
func (r *Reference[T]) Bound() bool {
	return r.target != nil
}

// Evaluate implements Expression.
func (r *Reference[T]) Evaluate(...any) T {
	if r.target != nil {
		return r.commit(r.target.Value())
	}
	return r.commit(r.pending)
}

// EvaluateChecked implements Expression.
func (r *Reference[T]) EvaluateChecked(args ...any) bool {
	r.Evaluate(args...)
	return r.changed
}

// TrySet writes v when the reference is independent.
func (r *Reference[T]) TrySet(v T) bool {
	if r.target != nil {
		return false
	}
	r.pending = v
	return true
}

// Compile-time interface checks
var (
	_ Expression[any] = (*Constant[any])(nil)
	_ Expression[any] = (*Dynamic[any])(nil)
	_ Expression[any] = (*Reference[any])(nil)
)
