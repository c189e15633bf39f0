package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/pushwork/pkg/ports"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 80, color.Black)
	img := canvas.ToImage()

	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 80 {
		t.Errorf("expected 100x80, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	_, _, _, a := img.At(50, 40).RGBA()
	if a == 0 {
		t.Error("expected opaque background")
	}
}

func TestRenderer_EncodeDecode(t *testing.T) {
	r := New()
	src := solid(40, 30, color.RGBA{R: 255, A: 255})

	formats := []ports.ImageFormat{ports.FormatJPEG, ports.FormatPNG, ports.FormatBMP}
	for _, format := range formats {
		t.Run(format.String(), func(t *testing.T) {
			data, err := r.EncodeImage(src, format, 90)
			if err != nil {
				t.Fatalf("EncodeImage failed: %v", err)
			}

			decoded, err := r.DecodeImage(data, format)
			if err != nil {
				t.Fatalf("DecodeImage failed: %v", err)
			}
			if decoded.Bounds().Dx() != 40 || decoded.Bounds().Dy() != 30 {
				t.Errorf("expected 40x30, got %v", decoded.Bounds())
			}

			// Auto-detection must recognise the same data
			auto, err := r.DecodeImage(data, ports.FormatAuto)
			if err != nil {
				t.Fatalf("auto DecodeImage failed: %v", err)
			}
			if auto.Bounds() != decoded.Bounds() {
				t.Errorf("auto decode bounds %v, expected %v", auto.Bounds(), decoded.Bounds())
			}
		})
	}
}

func TestRenderer_DecodeInvalid(t *testing.T) {
	r := New()

	if _, err := r.DecodeImage(nil, ports.FormatAuto); err == nil {
		t.Error("expected error for empty data")
	}
	if _, err := r.DecodeImage([]byte("not an image"), ports.FormatPNG); err == nil {
		t.Error("expected error for garbage data")
	}
}

func TestRenderer_EncodeUnsupported(t *testing.T) {
	r := New()

	if _, err := r.EncodeImage(solid(2, 2, color.White), ports.FormatAuto, 0); err == nil {
		t.Error("expected error for auto format")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()

	resized := r.ResizeImage(solid(100, 100, color.White), 64, 32)
	if resized.Bounds().Dx() != 64 || resized.Bounds().Dy() != 32 {
		t.Errorf("expected 64x32, got %v", resized.Bounds())
	}
}

func TestCanvas_DrawRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	canvas.DrawRect(10, 10, 30, 30, color.RGBA{R: 255, A: 255})

	img := canvas.ToImage()
	red, green, _, _ := img.At(20, 20).RGBA()
	if red == 0 || green != 0 {
		t.Error("expected red pixel inside rectangle")
	}
}

func TestCanvas_DrawImage(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	canvas.DrawImage(solid(20, 20, color.RGBA{R: 255, A: 255}), 10, 10)

	img := canvas.ToImage()
	_, green, _, _ := img.At(15, 15).RGBA()
	if green != 0 {
		t.Error("expected red pixel from drawn image")
	}
	_, green, _, _ = img.At(5, 5).RGBA()
	if green == 0 {
		t.Error("expected background outside drawn image")
	}
}

func TestCanvas_DrawImageScaled(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.Black)

	canvas.DrawImageScaled(solid(10, 10, color.White), 20, 30, 60, 40)

	img := canvas.ToImage()
	red, _, _, _ := img.At(50, 50).RGBA()
	if red == 0 {
		t.Error("expected scaled image inside target rectangle")
	}
	red, _, _, _ = img.At(10, 10).RGBA()
	if red != 0 {
		t.Error("expected background outside target rectangle")
	}
}
