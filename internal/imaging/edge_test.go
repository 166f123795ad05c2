package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// stepPlane returns a plane that is dark left of column split and bright from
// it onward.
func stepPlane(width, height, split int) *Plane {
	p := NewPlane(width, height)
	for y := 0; y < height; y++ {
		for x := split; x < width; x++ {
			p.Set(x, y, 255)
		}
	}
	return p
}

func TestCanny_UniformPlane(t *testing.T) {
	p := NewPlane(40, 40)
	for i := range p.Pix {
		p.Pix[i] = 128
	}

	edges := Canny(p, DefaultStrongThreshold, DefaultWeakThreshold)

	for i, v := range edges.Pix {
		if v != 0 {
			t.Fatalf("uniform plane produced an edge at %d", i)
		}
	}
}

func TestCanny_VerticalStep(t *testing.T) {
	p := stepPlane(100, 60, 50)

	edges := Canny(p, DefaultStrongThreshold, DefaultWeakThreshold)

	if edges.Width != 100 || edges.Height != 60 {
		t.Fatalf("dimensions: got %dx%d, want 100x60", edges.Width, edges.Height)
	}

	for y := 5; y < 55; y++ {
		count := 0
		for x := 0; x < 100; x++ {
			v := edges.At(x, y)
			if v != 0 && v != 255 {
				t.Fatalf("edge map value at (%d,%d) is %d, want 0 or 255", x, y, v)
			}
			if v == 255 {
				count++
				if x < 47 || x > 52 {
					t.Errorf("row %d: edge at x=%d, far from the step", y, x)
				}
			}
		}
		if count == 0 || count > 2 {
			t.Errorf("row %d: got %d edge pixels, want a thin edge", y, count)
		}
	}
}

func TestCanny_ThresholdsControlDetection(t *testing.T) {
	// A faint step of 20 levels stays below a high strong threshold.
	p := NewPlane(60, 30)
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			v := uint8(100)
			if x >= 30 {
				v = 120
			}
			p.Set(x, y, v)
		}
	}

	count := func(e *Plane) int {
		n := 0
		for _, v := range e.Pix {
			if v != 0 {
				n++
			}
		}
		return n
	}

	if n := count(Canny(p, 1000, 500)); n != 0 {
		t.Errorf("high thresholds: got %d edge pixels, want 0", n)
	}
	if n := count(Canny(p, 10, 5)); n == 0 {
		t.Error("low thresholds: faint step was not detected")
	}
}

func TestCanny_SmallPlane(t *testing.T) {
	for _, size := range [][2]int{{0, 0}, {1, 1}, {2, 5}, {5, 2}} {
		edges := Canny(NewPlane(size[0], size[1]), DefaultStrongThreshold, DefaultWeakThreshold)
		if edges.Width != size[0] || edges.Height != size[1] {
			t.Errorf("dimensions: got %dx%d, want %dx%d", edges.Width, edges.Height, size[0], size[1])
		}
		for _, v := range edges.Pix {
			if v != 0 {
				t.Errorf("%dx%d plane produced an edge", size[0], size[1])
				break
			}
		}
	}
}

func TestHysteresis(t *testing.T) {
	// One strong pixel at (1,1) with a weak chain running right along row 1,
	// and an isolated weak pixel at (8,4).
	out := NewPlane(10, 6)
	mag := make([]float64, 60)
	mag[1*10+1] = 100
	for x := 2; x <= 5; x++ {
		mag[1*10+x] = 40
	}
	mag[4*10+8] = 40
	mag[3*10+3] = 10

	hysteresis(mag, out, 80, 30)

	for x := 1; x <= 5; x++ {
		if out.At(x, 1) != 255 {
			t.Errorf("(%d,1) should be an edge", x)
		}
	}
	if out.At(8, 4) != 0 {
		t.Error("isolated weak pixel should be dropped")
	}
	if out.At(3, 3) != 0 {
		t.Error("pixel below the weak threshold should be dropped")
	}
}

func TestQuantizeDirection(t *testing.T) {
	tests := []struct {
		gx, gy float64
		want   uint8
	}{
		{1, 0, 0},
		{-1, 0, 0},
		{1, 1, 45},
		{-1, -1, 45},
		{0, 1, 90},
		{0, -1, 90},
		{-1, 1, 135},
		{1, -1, 135},
		{1, 0.3, 0},
		{0.3, 1, 90},
	}

	for _, tt := range tests {
		if got := quantizeDirection(tt.gx, tt.gy); got != tt.want {
			t.Errorf("quantizeDirection(%v, %v): got %d, want %d", tt.gx, tt.gy, got, tt.want)
		}
	}
}

func TestGaussianBlur(t *testing.T) {
	p := NewPlane(10, 10)
	for i := range p.Pix {
		p.Pix[i] = 100
	}

	blurred := gaussianBlur(p)

	// Replicated borders keep a uniform plane uniform everywhere.
	for i, v := range blurred {
		if math.Abs(v-100) > 1e-9 {
			t.Errorf("blurred[%d]: got %.3f, want 100", i, v)
		}
	}
}

func TestGaussianBlur_WithSpot(t *testing.T) {
	p := NewPlane(11, 11)
	p.Set(5, 5, 159)

	blurred := gaussianBlur(p)

	if got := blurred[5*11+5]; math.Abs(got-15) > 1e-9 {
		t.Errorf("centre: got %.3f, want 15", got)
	}
	if got := blurred[5*11+4]; math.Abs(got-12) > 1e-9 {
		t.Errorf("left neighbour: got %.3f, want 12", got)
	}
	if got := blurred[3*11+3]; math.Abs(got-2) > 1e-9 {
		t.Errorf("corner of kernel: got %.3f, want 2", got)
	}
	if got := blurred[0]; got != 0 {
		t.Errorf("outside kernel reach: got %.3f, want 0", got)
	}
}

func TestEdgeDetect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	result, err := EdgeDetect(img, DefaultWeakThreshold, DefaultStrongThreshold, nil)
	if err != nil {
		t.Fatalf("EdgeDetect failed: %v", err)
	}

	if result.Width != 100 || result.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	if result.EdgePixels == 0 {
		t.Error("strong vertical edge was not detected")
	}

	edgeImg := decodeResultPNG(t, result.ImageBase64)
	found := false
	for x := 47; x <= 52; x++ {
		if r, _, _, _ := edgeImg.At(x, 50).RGBA(); r > 0 {
			found = true
		}
	}
	if !found {
		t.Error("edge not rendered near the step")
	}
}

func TestEdgeDetect_WithCLAHE(t *testing.T) {
	img := createInMemoryImage(64, 64, color.RGBA{90, 90, 90, 255})
	opts := DefaultCLAHEOptions()

	result, err := EdgeDetect(img, DefaultWeakThreshold, DefaultStrongThreshold, &opts)
	if err != nil {
		t.Fatalf("EdgeDetect failed: %v", err)
	}
	if result.EdgePixels != 0 {
		t.Errorf("uniform image: got %d edge pixels, want 0", result.EdgePixels)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}
