package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/yllada/revelation-indicator/common"
)

// Tray icons are rendered once at startup.
var (
	iconLocked   = GenerateLockedIcon()
	iconUnlocked = GenerateUnlockedIcon()
)

// PadlockStyle defines how a padlock tray icon is drawn.
type PadlockStyle struct {
	Size        int
	BodyColor   color.RGBA
	EdgeColor   color.RGBA
	ShackleOpen bool
	KeyholeDark color.RGBA
}

// LockedStyle is the padlock shown while no data file is open.
func LockedStyle() PadlockStyle {
	return PadlockStyle{
		Size:        common.TrayIconSize,
		BodyColor:   color.RGBA{117, 117, 117, 255},
		EdgeColor:   color.RGBA{189, 189, 189, 255},
		KeyholeDark: color.RGBA{48, 48, 48, 255},
	}
}

// UnlockedStyle is the padlock shown while a data file is open.
func UnlockedStyle() PadlockStyle {
	return PadlockStyle{
		Size:        common.TrayIconSize,
		BodyColor:   color.RGBA{191, 144, 0, 255},
		EdgeColor:   color.RGBA{255, 202, 40, 255},
		ShackleOpen: true,
		KeyholeDark: color.RGBA{92, 64, 0, 255},
	}
}

// RenderPadlock draws a padlock and returns it PNG encoded.
func RenderPadlock(style PadlockStyle) []byte {
	size := style.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	bodyTop := size * 9 / 20
	bodyLeft, bodyRight := size/5, size-size/5-1
	bottom := size - 2

	// Body
	for y := bodyTop; y <= bottom; y++ {
		for x := bodyLeft; x <= bodyRight; x++ {
			if y == bodyTop || y == bottom || x == bodyLeft || x == bodyRight {
				img.Set(x, y, style.EdgeColor)
			} else {
				img.Set(x, y, style.BodyColor)
			}
		}
	}

	// Shackle. The open shackle is lifted and its right leg is free.
	lift := 0
	if style.ShackleOpen {
		lift = size / 8
	}
	left, right := bodyLeft+size/10, bodyRight-size/10
	top := 1
	legBottom := bodyTop - 1 - lift
	for x := left; x <= right; x++ {
		img.Set(x, top, style.EdgeColor)
		img.Set(x, top+1, style.EdgeColor)
	}
	for y := top; y <= bodyTop-1; y++ {
		img.Set(left, y, style.EdgeColor)
		img.Set(left+1, y, style.EdgeColor)
		if y <= legBottom {
			img.Set(right, y, style.EdgeColor)
			img.Set(right-1, y, style.EdgeColor)
		}
	}

	// Keyhole
	cx := size / 2
	cy := bodyTop + (bottom-bodyTop)/2
	for y := cy - 1; y <= cy+2; y++ {
		img.Set(cx, y, style.KeyholeDark)
	}
	img.Set(cx-1, cy-1, style.KeyholeDark)
	img.Set(cx+1, cy-1, style.KeyholeDark)

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// GenerateLockedIcon renders the locked tray icon.
func GenerateLockedIcon() []byte {
	return RenderPadlock(LockedStyle())
}

// GenerateUnlockedIcon renders the unlocked tray icon.
func GenerateUnlockedIcon() []byte {
	return RenderPadlock(UnlockedStyle())
}
