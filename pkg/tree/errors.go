package tree

import (
	"fmt"

	"github.com/vango-dev/vtree/internal/errors"
)

func errInvalidTemplate(t *Template, reason string) error {
	return errors.New("E101").WithDetailf("%s template: %s", t.Kind, reason)
}

func errUnknownComponent(name string) error {
	return errors.New("E102").WithDetailf("component %q", name).
		WithSuggestion("Register the component in the engine's ComponentRegistry")
}

func errInvalidArg(kind Kind, v any) error {
	return errors.New("E103").WithDetailf("%s does not accept %T", kind, v)
}

func errUnknownDirective(name string) error {
	return errors.New("E104").WithDetailf("directive %q", name)
}

func errInvalidOption(name string, err error) error {
	return errors.New("E105").WithDetailf("option %q", name).Wrap(err)
}

func errNotRoot(n *Node) error {
	return errors.New("E103").WithDetailf("%s node cannot be mounted", n.kind)
}

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
