package badges

// icons maps a definition's icon name to the glyph drawn in the terminal.
var icons = map[string]string{
	"flame":  "🔥",
	"award":  "🏅",
	"trophy": "🏆",
	"star":   "⭐",
}

// Glyph returns the terminal glyph for an icon name, or a neutral marker
// for names without one.
func Glyph(icon string) string {
	if g, ok := icons[icon]; ok {
		return g
	}
	return "✦"
}
