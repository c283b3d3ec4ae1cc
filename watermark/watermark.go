// Package watermark paints over fixed watermark areas in rasterized page
// images. Covered pixels take randomly chosen colors sampled from pixels
// around the area, with slight per channel noise, so the patch blends into
// plain backgrounds instead of leaving a solid block.
package watermark

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math/rand"
	"strconv"
	"strings"
)

const (
	AnchorTopLeft     = "top-left"
	AnchorTopRight    = "top-right"
	AnchorBottomLeft  = "bottom-left"
	AnchorBottomRight = "bottom-right"
)

var AllAnchors = []string{
	AnchorTopLeft,
	AnchorTopRight,
	AnchorBottomLeft,
	AnchorBottomRight,
}

// noiseAmp is maximum absolute per channel noise added to sampled colors.
const noiseAmp = 2

// Region is a watermark area anchored to one corner of the page.
type Region struct {
	Width  int
	Height int
	Anchor string
}

// DefaultRegion covers the bottom right corner stamp found in slide exports.
var DefaultRegion = Region{
	Width:  150,
	Height: 35,
	Anchor: AnchorBottomRight,
}

// ParseRegion reads region from a string in form of `WxH` or `WxH@anchor`.
func ParseRegion(value string) (Region, error) {
	region := Region{Anchor: AnchorBottomRight}

	sizeStr, anchor, hasAnchor := strings.Cut(value, "@")
	if hasAnchor {
		if !isValidAnchor(anchor) {
			return region, fmt.Errorf("unknown region anchor %q, possible values are: %s", anchor, strings.Join(AllAnchors, ", "))
		}
		region.Anchor = anchor
	}

	widthStr, heightStr, ok := strings.Cut(sizeStr, "x")
	if !ok {
		return region, fmt.Errorf("invalid region size %q, expecting form WxH", sizeStr)
	}

	width, err := strconv.Atoi(widthStr)
	if err != nil || width <= 0 {
		return region, fmt.Errorf("invalid region width: %q", widthStr)
	}

	height, err := strconv.Atoi(heightStr)
	if err != nil || height <= 0 {
		return region, fmt.Errorf("invalid region height: %q", heightStr)
	}

	region.Width = width
	region.Height = height

	return region, nil
}

func isValidAnchor(anchor string) bool {
	for _, a := range AllAnchors {
		if a == anchor {
			return true
		}
	}
	return false
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d@%s", r.Width, r.Height, r.Anchor)
}

// Rect places the region on a page of given bounds and clamps it to the page.
// Zero area rectangle is returned when the region falls outside the page.
func (r Region) Rect(bounds image.Rectangle) image.Rectangle {
	var rect image.Rectangle

	switch r.Anchor {
	case AnchorTopLeft:
		rect = image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+r.Width, bounds.Min.Y+r.Height)
	case AnchorTopRight:
		rect = image.Rect(bounds.Max.X-r.Width, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+r.Height)
	case AnchorBottomLeft:
		rect = image.Rect(bounds.Min.X, bounds.Max.Y-r.Height, bounds.Min.X+r.Width, bounds.Max.Y)
	default:
		rect = image.Rect(bounds.Max.X-r.Width, bounds.Max.Y-r.Height, bounds.Max.X, bounds.Max.Y)
	}

	return rect.Intersect(bounds)
}

// ToRGBA normalizes a decoded image into RGBA pixel format. Input image is
// returned unchanged if it already is RGBA.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	return rgba
}

// Scrub fills the region on given page with colors sampled from three
// reference pixels: the pixel in the region's bottom right corner, the pixel
// just above the region, and the pixel just left of it. Each covered pixel
// picks one of them at random
// and gets small per channel noise. Pages with the region clamped to zero
// area are left untouched.
func Scrub(page *image.RGBA, region Region, rng *rand.Rand) {
	bounds := page.Bounds()
	rect := region.Rect(bounds)
	if rect.Empty() {
		return
	}

	refs := referenceColors(page, rect)

	for x := rect.Min.X; x < rect.Max.X; x++ {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			c := refs[rng.Intn(len(refs))]
			page.SetRGBA(x, y, addNoise(c, rng))
		}
	}
}

// ScrubAll applies every region to the page in order.
func ScrubAll(page *image.RGBA, regions []Region, rng *rand.Rand) {
	for _, region := range regions {
		Scrub(page, region, rng)
	}
}

// referenceColors samples pixels surrounding the covered rectangle. When the
// rectangle touches a page edge and a neighbour pixel does not exist, the
// corner pixel is used in its place.
func referenceColors(page *image.RGBA, rect image.Rectangle) [3]color.RGBA {
	bounds := page.Bounds()

	corner := page.RGBAAt(rect.Max.X-1, rect.Max.Y-1)

	above := corner
	if rect.Min.Y > bounds.Min.Y {
		above = page.RGBAAt(rect.Max.X-1, rect.Min.Y-1)
	}

	beside := corner
	if rect.Min.X > bounds.Min.X {
		beside = page.RGBAAt(rect.Min.X-1, rect.Max.Y-1)
	}

	return [3]color.RGBA{corner, above, beside}
}

func addNoise(c color.RGBA, rng *rand.Rand) color.RGBA {
	return color.RGBA{
		R: clampChannel(int(c.R) + rng.Intn(noiseAmp*2+1) - noiseAmp),
		G: clampChannel(int(c.G) + rng.Intn(noiseAmp*2+1) - noiseAmp),
		B: clampChannel(int(c.B) + rng.Intn(noiseAmp*2+1) - noiseAmp),
		A: c.A,
	}
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
