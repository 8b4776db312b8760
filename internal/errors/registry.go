package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (R001-R099)
	// ============================================

	"R001": {
		Category: CategoryRuntime,
		Message:  "Write to read-only computed value",
		Detail:   "A computed value constructed without a setter cannot be written. The write was discarded.",
		DocURL:   "https://reflow-ui.dev/docs/errors/R001",
	},
	"R002": {
		Category: CategoryRuntime,
		Message:  "Subscriber reran after Stop",
		Detail:   "A stopped subscriber received a trigger. This indicates a dependency set was not cleaned up.",
		DocURL:   "https://reflow-ui.dev/docs/errors/R002",
	},
	"R003": {
		Category: CategoryRuntime,
		Message:  "Write to undeclared context key",
		Detail:   "Only keys returned by a component's setup phase may be written through the render context. The write was discarded.",
		DocURL:   "https://reflow-ui.dev/docs/errors/R003",
	},

	// ============================================
	// Render Errors (R100-R199)
	// ============================================

	"R100": {
		Category: CategoryRender,
		Message:  "Host node missing during patch",
		Detail:   "A virtual node reached the reconciler without a live host reference. This usually means lifecycle ordering was violated by the caller.",
		DocURL:   "https://reflow-ui.dev/docs/errors/R100",
	},
	"R101": {
		Category: CategoryRender,
		Message:  "Component has no render function",
		Detail:   "Every component descriptor must provide a Render function.",
		DocURL:   "https://reflow-ui.dev/docs/errors/R101",
	},

	// ============================================
	// Protocol Errors (P001-P099)
	// ============================================

	"P001": {
		Category: CategoryProtocol,
		Message:  "Frame payload too large",
		Detail:   "The encoded mutation frame exceeds the maximum payload size.",
		DocURL:   "https://reflow-ui.dev/docs/errors/P001",
	},
	"P002": {
		Category: CategoryProtocol,
		Message:  "Malformed mutation frame",
		Detail:   "The frame could not be decoded. The client and server protocol versions may differ.",
		DocURL:   "https://reflow-ui.dev/docs/errors/P002",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The reflow.yaml file could not be parsed.",
		DocURL:   "https://reflow-ui.dev/docs/errors/C001",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The serve address must be in host:port form.",
		DocURL:   "https://reflow-ui.dev/docs/errors/C002",
	},
}

// Register adds a custom error template to the registry.
// Intended for embedding applications that extend the code space.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template for a code, if registered.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
