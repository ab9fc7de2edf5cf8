// Package naming handles the identifier conventions of the timing
// engine: de-escaping engine-internal names and building hierarchical
// instance paths for reports and the transformation log.
package naming

import (
	"strings"

	"github.com/vk/gatesizer/internal/sta"
)

// DeEscape reverses the engine's internal escaping. The engine emits a
// backslash before `[`, `]`, `/` and `\`; user-facing output wants the
// bare characters. The replacements are applied in this exact order so
// that an escaped backslash never re-triggers an earlier rule.
func DeEscape(name string) string {
	name = strings.ReplaceAll(name, `\[`, "[")
	name = strings.ReplaceAll(name, `\]`, "]")
	name = strings.ReplaceAll(name, `\/`, "/")
	name = strings.ReplaceAll(name, `\\`, `\`)
	return name
}

// Escape applies the engine's internal escaping to a plain name. It is
// the inverse of DeEscape for names over the netlist identifier
// alphabet.
func Escape(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	name = strings.ReplaceAll(name, "[", `\[`)
	name = strings.ReplaceAll(name, "]", `\]`)
	name = strings.ReplaceAll(name, "/", `\/`)
	return name
}

// FullName returns the hierarchical path of an instance: the names of
// its enclosing instances joined with ".", with the de-escaped leaf
// name at the tail. Empty hierarchy levels are skipped.
func FullName(net sta.Network, inst sta.Instance) string {
	var sb strings.Builder
	for parent := net.Parent(inst); parent != nil; parent = net.Parent(parent) {
		if name := net.InstanceName(parent); name != "" {
			sb.WriteString(name)
			sb.WriteString(".")
		}
	}
	sb.WriteString(DeEscape(net.InstanceName(inst)))
	return sb.String()
}
