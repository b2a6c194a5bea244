package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
)

type analysisEntry struct {
	Index        int     `json:"index"`
	Significance float64 `json:"significance"`
}

// themeEntries preserves the reply's theme order, which a Go map would lose.
type themeEntries struct {
	Theme   string
	Entries []analysisEntry
}

// parseAnalysisReply recovers the structured payload from a model reply.
// Recovery chain: strip code fences, decode; on failure extract the outermost
// brace-delimited span and decode that. A schema-validated provider contract
// would remove this chain, but that is a provider decision, not ours.
func parseAnalysisReply(reply string) ([]themeEntries, error) {
	payload := stripCodeFence(reply)

	themes, err := decodeThemes(payload)
	if err == nil {
		return themes, nil
	}

	if span := braceSpan(payload); span != "" && span != payload {
		if themes, err2 := decodeThemes(span); err2 == nil {
			return themes, nil
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// braceSpan returns the outermost {...} span, or "" if none.
func braceSpan(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return ""
}

// decodeThemes walks the JSON object with a token decoder so theme order is
// preserved exactly as the model emitted it.
func decodeThemes(s string) ([]themeEntries, error) {
	dec := json.NewDecoder(strings.NewReader(s))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var out []themeEntries
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		theme, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected theme name, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		entries, err := decodeEntries(raw)
		if err != nil {
			return nil, fmt.Errorf("theme %q: %w", theme, err)
		}
		out = append(out, themeEntries{Theme: theme, Entries: entries})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeEntries tolerates one level of incorrect list nesting, which some
// models emit per theme.
func decodeEntries(raw json.RawMessage) ([]analysisEntry, error) {
	var entries []analysisEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries, nil
	}

	var nested [][]analysisEntry
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	var flat []analysisEntry
	for _, group := range nested {
		flat = append(flat, group...)
	}
	return flat, nil
}
