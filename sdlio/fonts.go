package sdlio

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultFontPath returns the first .ttf or .ttc file in ./fonts, then a
// platform sans-serif font, or "" when none is found.
func DefaultFontPath() string {
	return findFont("fonts", systemFonts())
}

func systemFonts() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{`C:\Windows\Fonts\arial.ttf`}
	case "darwin":
		return []string{"/System/Library/Fonts/Helvetica.ttc"}
	}
	return []string{
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
	}
}

func findFont(localDir string, system []string) string {
	if entries, err := os.ReadDir(localDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".ttf", ".ttc":
				return filepath.Join(localDir, entry.Name())
			}
		}
	}
	for _, p := range system {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
