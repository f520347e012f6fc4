package llm

import (
	"encoding/json"
	"strings"
)

// finish turns the provider's reply text into Response content. Schema
// replies are unfenced and validated; plain replies are stored as a JSON
// string.
func finish(req Request, text, stop string) (json.RawMessage, error) {
	if req.Schema == nil {
		b, _ := json.Marshal(strings.TrimSpace(text))
		return b, nil
	}
	raw := json.RawMessage(stripFences(text))
	if stop == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: raw}
	}
	if err := validateResponse(req.Schema, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// stripFences removes a surrounding ```json code fence some models add.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
