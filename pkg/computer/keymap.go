package computer

import "strings"

// keyNames translates the key names agents emit into the names the driver's
// keyboard understands.
var keyNames = map[string]string{
	"/":          "Divide",
	"\\":         "Backslash",
	"alt":        "Alt",
	"arrowdown":  "ArrowDown",
	"arrowleft":  "ArrowLeft",
	"arrowright": "ArrowRight",
	"arrowup":    "ArrowUp",
	"backspace":  "Backspace",
	"capslock":   "CapsLock",
	"cmd":        "Meta",
	"ctrl":       "Control",
	"delete":     "Delete",
	"end":        "End",
	"enter":      "Enter",
	"esc":        "Escape",
	"home":       "Home",
	"insert":     "Insert",
	"option":     "Alt",
	"pagedown":   "PageDown",
	"pageup":     "PageUp",
	"shift":      "Shift",
	"space":      " ",
	"super":      "Meta",
	"tab":        "Tab",
	"win":        "Meta",
}

// MapKey returns the driver key name for an agent key name. Lookup ignores case;
// names missing from the table are returned unchanged.
func MapKey(name string) string {
	if mapped, ok := keyNames[strings.ToLower(name)]; ok {
		return mapped
	}
	return name
}

// MapKeys maps every name in keys, preserving order.
func MapKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = MapKey(k)
	}
	return out
}
