package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the live view.
type Theme struct {
	Name    string
	Canvas  lipgloss.Color
	Header  lipgloss.Color
	Label   lipgloss.Color
	Value   lipgloss.Color
	Graph   lipgloss.Color
	Border  lipgloss.Color
	Running lipgloss.Color
	Paused  lipgloss.Color
}

var Themes = []Theme{
	{
		Name:    "cyberpunk",
		Canvas:  lipgloss.Color("#00ffff"),
		Header:  lipgloss.Color("#ff00ff"),
		Label:   lipgloss.Color("#888899"),
		Value:   lipgloss.Color("#ffffff"),
		Graph:   lipgloss.Color("#ffff00"),
		Border:  lipgloss.Color("#444466"),
		Running: lipgloss.Color("#00ff88"),
		Paused:  lipgloss.Color("#ffaa00"),
	},
	{
		Name:    "retro",
		Canvas:  lipgloss.Color("#00ff00"),
		Header:  lipgloss.Color("#88ff88"),
		Label:   lipgloss.Color("#008800"),
		Value:   lipgloss.Color("#00ff00"),
		Graph:   lipgloss.Color("#00cc00"),
		Border:  lipgloss.Color("#005500"),
		Running: lipgloss.Color("#88ff88"),
		Paused:  lipgloss.Color("#ffff00"),
	},
	{
		Name:    "minimal",
		Canvas:  lipgloss.Color("#ffffff"),
		Header:  lipgloss.Color("#ffffff"),
		Label:   lipgloss.Color("#888888"),
		Value:   lipgloss.Color("#cccccc"),
		Graph:   lipgloss.Color("#0088ff"),
		Border:  lipgloss.Color("#444444"),
		Running: lipgloss.Color("#00ff00"),
		Paused:  lipgloss.Color("#ffaa00"),
	},
	{
		Name:    "ocean",
		Canvas:  lipgloss.Color("#00a8cc"),
		Header:  lipgloss.Color("#ffd700"),
		Label:   lipgloss.Color("#4488aa"),
		Value:   lipgloss.Color("#e0f0ff"),
		Graph:   lipgloss.Color("#0077be"),
		Border:  lipgloss.Color("#224466"),
		Running: lipgloss.Color("#00ff88"),
		Paused:  lipgloss.Color("#ffcc00"),
	},
	{
		Name:    "sunset",
		Canvas:  lipgloss.Color("#feca57"),
		Header:  lipgloss.Color("#ff6b6b"),
		Label:   lipgloss.Color("#8b6b8c"),
		Value:   lipgloss.Color("#fff5f5"),
		Graph:   lipgloss.Color("#ff9ff3"),
		Border:  lipgloss.Color("#5a3b5c"),
		Running: lipgloss.Color("#5fd068"),
		Paused:  lipgloss.Color("#ffc048"),
	},
}

// GetTheme returns the named theme, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
