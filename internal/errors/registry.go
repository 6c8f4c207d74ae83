package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]Template{
	// Config errors (E100-E119)
	"E100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "vdiff.json or vdiff.yaml could not be parsed.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "The configuration file passed with --config does not exist.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or malformed.",
	},

	// Tree errors (E200-E219)
	"E200": {
		Category: CategoryTree,
		Message:  "Invalid tree file",
		Detail:   "The tree file could not be parsed as JSON or YAML.",
	},
	"E201": {
		Category: CategoryTree,
		Message:  "Node without a tag",
		Detail:   "Every element node needs a tag; text nodes set text instead.",
	},
	"E202": {
		Category: CategoryTree,
		Message:  "Text node with children",
		Detail:   "A text node is a leaf and cannot have children.",
	},
	"E203": {
		Category: CategoryTree,
		Message:  "Invalid event",
		Detail:   "Events need a name and a non-zero handler id.",
	},
	"E204": {
		Category: CategoryTree,
		Message:  "Tree too deep",
		Detail:   "The tree exceeds the maximum nesting depth.",
	},

	// Protocol errors (E300-E319)
	"E300": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A websocket message could not be decoded as a protocol frame.",
	},
	"E301": {
		Category: CategoryProtocol,
		Message:  "Unexpected frame type",
		Detail:   "The peer sent a frame type that is not valid in this direction.",
	},
	"E302": {
		Category: CategoryProtocol,
		Message:  "Server error",
		Detail:   "The server reported an error.",
	},

	// Runtime errors (E400-E419)
	"E400": {
		Category: CategoryRuntime,
		Message:  "Session closed",
		Detail:   "The session is no longer accepting work.",
	},
	"E401": {
		Category: CategoryRuntime,
		Message:  "Unknown handler",
		Detail:   "The event names a handler that is not attached to the target node.",
	},
	"E402": {
		Category: CategoryRuntime,
		Message:  "Host out of sync",
		Detail:   "A delta referenced a node the host does not hold.",
	},
	"E403": {
		Category: CategoryRuntime,
		Message:  "Connection failed",
		Detail:   "The websocket connection could not be established.",
	},

	// CLI errors (E500-E519)
	"E500": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
	"E501": {
		Category: CategoryCLI,
		Message:  "Unknown output format",
		Detail:   "Supported formats are text and json.",
	},
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces an error template.
func Register(code string, t Template) {
	registry[code] = t
}
