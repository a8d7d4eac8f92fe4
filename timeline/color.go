package timeline

import (
	"fmt"
	"image/color"
)

var (
	DraftColor = color.RGBA{0xff, 0xa5, 0x00, 0xff} // orange

	red        = color.RGBA{0xff, 0x00, 0x00, 0xff}
	darkViolet = color.RGBA{0x94, 0x00, 0xd3, 0xff}
	blue       = color.RGBA{0x00, 0x00, 0xff, 0xff}
	green      = color.RGBA{0x00, 0x80, 0x00, 0xff}
	black      = color.RGBA{0x00, 0x00, 0x00, 0xff}

	salmon      = color.RGBA{0xfa, 0x80, 0x72, 0xff}
	plum        = color.RGBA{0xdd, 0xa0, 0xdd, 0xff}
	deepSkyBlue = color.RGBA{0x00, 0xbf, 0xff, 0xff}
	lightGreen  = color.RGBA{0x90, 0xee, 0x90, 0xff}
)

func ColorFor(c Category) color.RGBA {
	switch c {
	case Struggled:
		return red
	case Partial:
		return darkViolet
	case MostlyUnderstood:
		return blue
	case Notable:
		return green
	}
	return black
}

// SectionColorFor returns the lighter tone used for the section overlay of
// a marker filled with c.
func SectionColorFor(c color.RGBA) color.RGBA {
	switch c {
	case red:
		return salmon
	case darkViolet:
		return plum
	case blue:
		return deepSkyBlue
	}
	return lightGreen
}

func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
