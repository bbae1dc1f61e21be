package cmd

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/achilleasa/playground/renderer"
	"github.com/achilleasa/playground/scene"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestParsePrimitiveDef(t *testing.T) {
	type spec struct {
		def      string
		kind     string
		primType scene.PrimitiveType
		expError bool
	}
	specs := []spec{
		{"Quad", "Quad", scene.DiffuseMeshPrimitive, false},
		{"Quad:Mirror", "Quad", scene.MirrorPrimitive, false},
		{"Teapot:glass", "Teapot", scene.GlassPrimitive, false},
		{"Quad:diffuse mesh", "Quad", scene.DiffuseMeshPrimitive, false},
		{":Mirror", "", scene.NonePrimitive, true},
		{"Quad:Chrome", "", scene.NonePrimitive, true},
	}

	for idx, s := range specs {
		kind, primType, err := parsePrimitiveDef(s.def)
		if s.expError {
			if err == nil {
				t.Fatalf("[spec %d] expected an error", idx)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error %v", idx, err)
		}
		if kind != s.kind || primType != s.primType {
			t.Fatalf("[spec %d] expected %s/%s; got %s/%s", idx, s.kind, s.primType, kind, primType)
		}
	}
}

func TestParseVec3Flag(t *testing.T) {
	v, err := parseVec3Flag("1, -2.5,3e-1")
	if err != nil {
		t.Fatal(err)
	}
	if exp := (mgl32.Vec3{1, -2.5, 0.3}); !v.ApproxEqual(exp) {
		t.Fatalf("expected %v; got %v", exp, v)
	}

	for _, val := range []string{"1,2", "1,2,x", ""} {
		if _, err := parseVec3Flag(val); err == nil {
			t.Fatalf("expected an error parsing %q", val)
		}
	}
}

func TestFrameEncoder(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.NRGBA{255, 0, 0, 255})

	type spec struct {
		filename string
		decode   func(*bytes.Buffer) (image.Image, error)
	}
	specs := []spec{
		{"frame.png", func(b *bytes.Buffer) (image.Image, error) { img, _, err := image.Decode(b); return img, err }},
		{"frame.TIFF", func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(b) }},
		{"frame.bmp", func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) }},
	}

	for idx, s := range specs {
		encode, err := frameEncoder(s.filename)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error %v", idx, err)
		}
		var buf bytes.Buffer
		if err = encode(&buf, img); err != nil {
			t.Fatalf("[spec %d] encode failed: %v", idx, err)
		}
		decoded, err := s.decode(&buf)
		if err != nil {
			t.Fatalf("[spec %d] decode failed: %v", idx, err)
		}
		if r, g, _, _ := decoded.At(1, 1).RGBA(); r != 0xffff || g != 0 {
			t.Fatalf("[spec %d] expected red pixel at (1, 1); got %v", idx, decoded.At(1, 1))
		}
	}

	if _, err := frameEncoder("frame.exr"); err == nil {
		t.Fatal("expected an error for unsupported output format")
	}
}

func TestFormatFrameStats(t *testing.T) {
	stats := renderer.FrameStats{
		Passes: []renderer.PassStat{
			{Kind: renderer.FirstPass, Rays: 16, Samples: 1, RenderTime: time.Millisecond},
			{Kind: renderer.AntialiasingPass, Hybrid: true, Rays: 64, Samples: 4, RenderTime: 2 * time.Millisecond},
		},
		RenderTime: 3 * time.Millisecond,
	}

	out := formatFrameStats(stats)
	for _, exp := range []string{"antialiasing", "hybrid", "volumetric", "64", "3ms"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected stats table to contain %q; got\n%s", exp, out)
		}
	}
}
