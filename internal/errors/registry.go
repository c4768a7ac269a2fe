package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Template Errors (E100-E119)
	// ============================================

	"E101": {
		Category: CategoryTemplate,
		Message:  "Invalid template",
	},
	"E102": {
		Category: CategoryTemplate,
		Message:  "Unknown component",
		Detail:   "The component name is not registered with the engine.",
	},
	"E103": {
		Category: CategoryTemplate,
		Message:  "Invalid template argument",
	},
	"E104": {
		Category: CategoryTemplate,
		Message:  "Unknown directive",
		Detail:   "An option key names a directive that is not registered with the engine.",
	},
	"E105": {
		Category: CategoryTemplate,
		Message:  "Invalid option value",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
	},

	// ============================================
	// Document Errors (E150-E159)
	// ============================================

	"E150": {
		Category: CategoryDocument,
		Message:  "Invalid template document",
	},
	"E151": {
		Category: CategoryDocument,
		Message:  "Unknown document entry",
		Detail:   "A document node must name exactly one of: element, text, if, each, dynamic, html, component, slot, empty.",
	},

	// ============================================
	// Publish Errors (E160-E169)
	// ============================================

	"E160": {
		Category: CategoryPublish,
		Message:  "Snapshot upload failed",
	},

	// ============================================
	// Runtime Errors (E200-E299)
	// ============================================

	"E201": {
		Category: CategoryCompute,
		Message:  "Node recompute failed",
		Detail:   "The node's subtree was skipped for this render pass.",
	},
	"E202": {
		Category: CategoryLifecycle,
		Message:  "Node destroy failed",
	},
	"E203": {
		Category: CategoryLifecycle,
		Message:  "Handler failed",
	},
	"E204": {
		Category: CategoryLifecycle,
		Message:  "Component init failed",
	},

	// ============================================
	// Sync Errors (E300-E309)
	// ============================================

	"E301": {
		Category: CategorySync,
		Message:  "Output tree structure mismatch",
		Detail:   "A live output node did not match the node tree. This indicates a consistency bug.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
