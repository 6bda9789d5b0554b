package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toastd/internal/model"
)

// ErrCircularExtends is returned when themes extend each other in a loop.
var ErrCircularExtends = errors.New("circular theme extends")

// Colors holds the lipgloss color strings of a theme: ANSI indexes
// ("12") or hex values ("#89b4fa").
type Colors struct {
	Info    string `toml:"info,omitempty"`
	Success string `toml:"success,omitempty"`
	Warning string `toml:"warning,omitempty"`
	Error   string `toml:"error,omitempty"`
	Muted   string `toml:"muted,omitempty"` // Hints, "paused", persistent label
	Text    string `toml:"text,omitempty"`  // Status line
}

// Palette is the decoded form of a theme file.
type Palette struct {
	Extends     string `toml:"extends,omitempty"` // Theme whose values fill the gaps
	Border      string `toml:"border,omitempty"`
	FocusBorder string `toml:"focus_border,omitempty"`
	Colors      Colors `toml:"colors"`
}

// builtin fills any value no theme in the extends chain sets.
var builtin = Palette{
	Border:      "rounded",
	FocusBorder: "thick",
	Colors: Colors{
		Info:    "12",
		Success: "10",
		Warning: "11",
		Error:   "9",
		Muted:   "8",
		Text:    "7",
	},
}

// Theme represents a color theme with metadata.
type Theme struct {
	Name      string    // Theme name (without .toml extension)
	Path      string    // Full path to the theme file (empty when embedded)
	Palette   Palette   // Resolved palette, extends applied
	ModTime   time.Time // Last modification time
	IsDefault bool      // True if this is the embedded default theme
}

// NewTheme creates a new Theme by loading a TOML file.
// An extends key is resolved relative to the file's directory first, then
// against the embedded themes.
func NewTheme(name, path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	palette, err := ParsePalette(data, filepath.Dir(path), map[string]bool{name: true})
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}

	return &Theme{
		Name:    name,
		Path:    path,
		Palette: palette,
		ModTime: info.ModTime(),
	}, nil
}

// NewEmbeddedTheme creates a theme from the bundled set.
func NewEmbeddedTheme(name string) (*Theme, error) {
	data, found := GetEmbeddedTheme(name)
	if !found {
		return nil, fmt.Errorf("no bundled theme %q", name)
	}

	palette, err := ParsePalette(data, "", map[string]bool{name: true})
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}

	return &Theme{
		Name:      name,
		Palette:   palette,
		IsDefault: name == DefaultThemeName,
	}, nil
}

// NewDefaultTheme creates the embedded default theme.
func NewDefaultTheme() *Theme {
	t, err := NewEmbeddedTheme(DefaultThemeName)
	if err != nil {
		return &Theme{Name: DefaultThemeName, Palette: builtin, IsDefault: true}
	}
	return t
}

// ParsePalette decodes a theme and resolves its extends chain.
// baseDir is searched for parent themes before the embedded set; seen
// holds the names already on the chain.
func ParsePalette(data []byte, baseDir string, seen map[string]bool) (Palette, error) {
	if seen == nil {
		seen = make(map[string]bool)
	}

	var p Palette
	if err := toml.Unmarshal(data, &p); err != nil {
		return Palette{}, fmt.Errorf("failed to parse theme: %w", err)
	}

	parent := builtin
	if p.Extends != "" {
		if seen[p.Extends] {
			return Palette{}, fmt.Errorf("%w: %s", ErrCircularExtends, p.Extends)
		}
		seen[p.Extends] = true

		parentData, parentDir, err := findParent(p.Extends, baseDir)
		if err != nil {
			return Palette{}, err
		}
		parent, err = ParsePalette(parentData, parentDir, seen)
		if err != nil {
			return Palette{}, err
		}
	}

	p.Extends = ""
	return p.over(parent), nil
}

// findParent locates an extended theme on disk or in the embedded set.
func findParent(name, baseDir string) ([]byte, string, error) {
	if baseDir != "" {
		path := filepath.Join(baseDir, name+".toml")
		if data, err := os.ReadFile(path); err == nil {
			return data, baseDir, nil
		}
	}
	if data, found := GetEmbeddedTheme(name); found {
		return data, "", nil
	}
	return nil, "", fmt.Errorf("extended theme %q not found", name)
}

// over returns p with empty values taken from base.
func (p Palette) over(base Palette) Palette {
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	}

	return Palette{
		Border:      pick(p.Border, base.Border),
		FocusBorder: pick(p.FocusBorder, base.FocusBorder),
		Colors: Colors{
			Info:    pick(p.Colors.Info, base.Colors.Info),
			Success: pick(p.Colors.Success, base.Colors.Success),
			Warning: pick(p.Colors.Warning, base.Colors.Warning),
			Error:   pick(p.Colors.Error, base.Colors.Error),
			Muted:   pick(p.Colors.Muted, base.Colors.Muted),
			Text:    pick(p.Colors.Text, base.Colors.Text),
		},
	}
}

// CategoryColor returns the accent color for a category.
func (t *Theme) CategoryColor(c model.Category) lipgloss.Color {
	switch c {
	case model.CategorySuccess:
		return lipgloss.Color(t.Palette.Colors.Success)
	case model.CategoryWarning:
		return lipgloss.Color(t.Palette.Colors.Warning)
	case model.CategoryError:
		return lipgloss.Color(t.Palette.Colors.Error)
	default:
		return lipgloss.Color(t.Palette.Colors.Info)
	}
}

// Muted returns the color for secondary text.
func (t *Theme) Muted() lipgloss.Color {
	return lipgloss.Color(t.Palette.Colors.Muted)
}

// Text returns the color for the status line.
func (t *Theme) Text() lipgloss.Color {
	return lipgloss.Color(t.Palette.Colors.Text)
}

// Border returns the card border, thicker or doubled when focused
// depending on the theme.
func (t *Theme) Border(focused bool) lipgloss.Border {
	if focused {
		return borderByName(t.Palette.FocusBorder)
	}
	return borderByName(t.Palette.Border)
}

func borderByName(name string) lipgloss.Border {
	switch strings.ToLower(name) {
	case "normal":
		return lipgloss.NormalBorder()
	case "thick":
		return lipgloss.ThickBorder()
	case "double":
		return lipgloss.DoubleBorder()
	case "block":
		return lipgloss.BlockBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}

// Reload reloads the theme from disk.
// It returns the fresh theme when the file's modification time moved,
// and whether the resolved palette differs. Embedded themes never change.
func (t *Theme) Reload() (*Theme, bool, error) {
	if t.Path == "" {
		return nil, false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return nil, false, err
	}

	if !info.ModTime().After(t.ModTime) {
		return nil, false, nil
	}

	fresh, err := NewTheme(t.Name, t.Path)
	if err != nil {
		return nil, false, err
	}

	return fresh, fresh.Palette != t.Palette, nil
}

// ThemeInfo provides basic theme information for listing.
type ThemeInfo struct {
	Name      string
	Path      string
	IsDefault bool
	IsBundled bool // True if this is a bundled/embedded theme
}

// ThemesDir returns the path to the user's themes directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "toastd", "themes"), nil
}

// ListAvailableThemes lists all available themes (bundled + user).
func ListAvailableThemes() ([]ThemeInfo, error) {
	themesDir, err := ThemesDir()
	if err != nil {
		themesDir = ""
	}
	return listThemes(themesDir)
}

func listThemes(themesDir string) ([]ThemeInfo, error) {
	seen := make(map[string]bool)
	var themes []ThemeInfo

	for _, name := range ListEmbeddedThemes() {
		if !seen[name] {
			seen[name] = true
			themes = append(themes, ThemeInfo{
				Name:      name,
				IsDefault: name == DefaultThemeName,
				IsBundled: true,
			})
		}
	}

	if themesDir == "" {
		return themes, nil
	}

	entries, err := os.ReadDir(themesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return themes, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".toml" {
			continue
		}
		themeName := strings.TrimSuffix(name, ".toml")
		path := filepath.Join(themesDir, name)
		if seen[themeName] {
			// A user file shadows the bundled theme of the same name.
			for i := range themes {
				if themes[i].Name == themeName {
					themes[i].Path = path
					themes[i].IsBundled = false
				}
			}
			continue
		}
		seen[themeName] = true
		themes = append(themes, ThemeInfo{Name: themeName, Path: path})
	}

	return themes, nil
}

// CreateThemesDir creates the themes directory if it doesn't exist.
func CreateThemesDir() error {
	themesDir, err := ThemesDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(themesDir, 0755)
}
