package watermark

import (
	"image"
	"image/color"
	"math/rand"
	"testing"
)

func TestParseRegion(t *testing.T) {
	region, err := ParseRegion("150x35")
	if err != nil {
		t.Fatalf("failed to parse plain size: %s", err)
	}
	if region.Width != 150 || region.Height != 35 || region.Anchor != AnchorBottomRight {
		t.Errorf("unexpected region: %s", region)
	}

	region, err = ParseRegion("200x50@top-left")
	if err != nil {
		t.Fatalf("failed to parse region with anchor: %s", err)
	}
	if region.Width != 200 || region.Height != 50 || region.Anchor != AnchorTopLeft {
		t.Errorf("unexpected region: %s", region)
	}

	badInputs := []string{"", "150", "x35", "150x", "-3x35", "150x35@middle", "axb"}
	for _, input := range badInputs {
		if _, err := ParseRegion(input); err == nil {
			t.Errorf("expecting error for input %q", input)
		}
	}
}

func TestRegionRect(t *testing.T) {
	bounds := image.Rect(0, 0, 800, 450)

	cases := []struct {
		anchor string
		want   image.Rectangle
	}{
		{AnchorBottomRight, image.Rect(650, 415, 800, 450)},
		{AnchorBottomLeft, image.Rect(0, 415, 150, 450)},
		{AnchorTopRight, image.Rect(650, 0, 800, 35)},
		{AnchorTopLeft, image.Rect(0, 0, 150, 35)},
	}

	for _, c := range cases {
		region := Region{Width: 150, Height: 35, Anchor: c.anchor}
		rect := region.Rect(bounds)
		if rect != c.want {
			t.Errorf("anchor %s: got %v, want %v", c.anchor, rect, c.want)
		}
	}
}

func TestRegionRectClamping(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 20)

	region := Region{Width: 150, Height: 35, Anchor: AnchorBottomRight}
	rect := region.Rect(bounds)
	if rect != bounds {
		t.Errorf("oversized region should clamp to page bounds, got %v", rect)
	}
}

func TestScrubStaysCloseToBackground(t *testing.T) {
	bg := color.RGBA{R: 200, G: 210, B: 220, A: 255}

	page := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for x := 0; x < 300; x++ {
		for y := 0; y < 100; y++ {
			page.SetRGBA(x, y, bg)
		}
	}

	// stamp a dark watermark block in the bottom right corner, the page corner
	// pixel itself stays background since it serves as a reference sample
	mark := color.RGBA{R: 10, G: 10, B: 10, A: 255}
	region := Region{Width: 150, Height: 35, Anchor: AnchorBottomRight}
	rect := region.Rect(page.Bounds())
	for x := rect.Min.X; x < rect.Max.X; x++ {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			if x == rect.Max.X-1 && y == rect.Max.Y-1 {
				continue
			}
			page.SetRGBA(x, y, mark)
		}
	}

	rng := rand.New(rand.NewSource(1))
	Scrub(page, region, rng)

	// every covered pixel should now look like surrounding background
	for x := rect.Min.X; x < rect.Max.X; x++ {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			c := page.RGBAAt(x, y)
			if diff(c.R, bg.R) > 2 || diff(c.G, bg.G) > 2 || diff(c.B, bg.B) > 2 {
				t.Fatalf("pixel (%d, %d) = %v, too far from background %v", x, y, c, bg)
			}
			if c.A != 255 {
				t.Fatalf("pixel (%d, %d) lost alpha: %v", x, y, c)
			}
		}
	}
}

func TestScrubDeterministicWithSeed(t *testing.T) {
	makePage := func() *image.RGBA {
		page := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for x := 0; x < 64; x++ {
			for y := 0; y < 64; y++ {
				page.SetRGBA(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 3), B: 100, A: 255})
			}
		}
		return page
	}

	first := makePage()
	second := makePage()
	region := Region{Width: 32, Height: 16, Anchor: AnchorBottomRight}

	Scrub(first, region, rand.New(rand.NewSource(42)))
	Scrub(second, region, rand.New(rand.NewSource(42)))

	for i := range first.Pix {
		if first.Pix[i] != second.Pix[i] {
			t.Fatalf("same seed produced different output at byte %d", i)
		}
	}
}

func TestScrubEmptyPage(t *testing.T) {
	// clamping on a zero size page gives an empty rectangle, scrub must not
	// touch pixel data or panic
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	Scrub(empty, DefaultRegion, rand.New(rand.NewSource(1)))
}

func TestToRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.SetGray(1, 1, color.Gray{Y: 128})

	rgba := ToRGBA(gray)
	c := rgba.RGBAAt(1, 1)
	if c.R != 128 || c.G != 128 || c.B != 128 || c.A != 255 {
		t.Errorf("unexpected converted pixel: %v", c)
	}

	same := ToRGBA(rgba)
	if same != rgba {
		t.Errorf("RGBA input should be returned unchanged")
	}
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
