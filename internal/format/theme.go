package format

// Theme is the visual mode the view layer applies.
type Theme int

const (
	ThemeNormal Theme = iota
	ThemeBlizzard
)

func (t Theme) String() string {
	if t == ThemeBlizzard {
		return "blizzard"
	}
	return "normal"
}

// Toggle switches between the two themes.
func (t Theme) Toggle() Theme {
	if t == ThemeBlizzard {
		return ThemeNormal
	}
	return ThemeBlizzard
}
