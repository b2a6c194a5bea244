package config

import "strings"

// ExpandTemplate substitutes {name} placeholders in prompt and phrase
// templates. Unknown placeholders are left as-is so a typo in the locale table
// shows up verbatim in output instead of vanishing silently.
func ExpandTemplate(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
