package tree

// Kind is the node and template variant discriminator.
type Kind uint8

const (
	KindElement     Kind = iota + 1 // <div>, <button>, etc.
	KindText                        // Text content
	KindEmpty                       // Renders nothing
	KindConditional                 // if / else-if / else branches
	KindList                        // One child per item of a source
	KindDynamic                     // Templates produced at render time
	KindFragment                    // Raw markup or prebuilt output nodes
	KindComponent                   // Registered component instance
	KindRoot                        // Mount point for an output container

	// KindSlot only appears in component templates. The compiler replaces
	// it with the caller's children routed to the slot's name.
	KindSlot
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindEmpty:
		return "Empty"
	case KindConditional:
		return "Conditional"
	case KindList:
		return "List"
	case KindDynamic:
		return "Dynamic"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	case KindRoot:
		return "Root"
	case KindSlot:
		return "Slot"
	default:
		return "Unknown"
	}
}
