package hooks

import (
	_ "embed"
)

// Hook script templates embedded in the binary.
// These are installed to ~/.claude/hooks/skillreflect/ via the hooks
// install command.

//go:embed scripts/reflect_stop.sh
var ReflectStopScript string

// ScriptNames maps script identifiers to their filenames.
var ScriptNames = map[string]string{
	"reflect_stop": "reflect_stop.sh",
}

// GetScript returns the embedded script content by name.
func GetScript(name string) string {
	switch name {
	case "reflect_stop":
		return ReflectStopScript
	default:
		return ""
	}
}

// AllScripts returns all scripts as name -> content map.
func AllScripts() map[string]string {
	return map[string]string{
		"reflect_stop": ReflectStopScript,
	}
}
