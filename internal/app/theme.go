package app

import (
	"image/color"

	"glyphocr/pkg/colorutil"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// GlyphTheme is the default theme with the segment box color as primary.
type GlyphTheme struct{}

var _ fyne.Theme = (*GlyphTheme)(nil)

func (t *GlyphTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return colorutil.Box
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xC0, G: 0x40, B: 0xC0, A: 0x60}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *GlyphTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *GlyphTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *GlyphTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 15
	default:
		return theme.DefaultTheme().Size(name)
	}
}
