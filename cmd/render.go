package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/achilleasa/playground/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}
	encode, err := frameEncoder(ctx.String("out"))
	if err != nil {
		return err
	}

	engine, err := setupEngine(ctx, opts)
	if err != nil {
		return err
	}
	camera, err := setupCamera(ctx, opts)
	if err != nil {
		return err
	}

	logger.Notice("rendering frame")
	frame, err := engine.Render(camera)
	if err != nil {
		return err
	}

	displayFrameStats(engine.Stats())

	f, err := os.Create(ctx.String("out"))
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	if err = encode(f, frame.Image()); err != nil {
		return fmt.Errorf("could not encode frame: %w", err)
	}
	logger.Noticef("wrote frame to %s in %d ms", ctx.String("out"), time.Since(start).Milliseconds())
	return nil
}

// Use opengl to render a continuously updating view of the engine output.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	engine, err := setupEngine(ctx, opts)
	if err != nil {
		return err
	}
	camera, err := setupCamera(ctx, opts)
	if err != nil {
		return err
	}

	// GL calls must be issued from the thread that created the context
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	viewer, err := renderer.NewInteractive(engine, camera, opts)
	if err != nil {
		return err
	}
	defer viewer.Close()

	return viewer.Run()
}

type imageEncoder func(io.Writer, image.Image) error

// Select an image encoder based on the output file extension.
func frameEncoder(filename string) (imageEncoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return png.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	case ".bmp":
		return bmp.Encode, nil
	}
	return nil, fmt.Errorf("unsupported output image format %q; use png, tiff or bmp", filepath.Ext(filename))
}

func displayFrameStats(stats renderer.FrameStats) {
	logger.Noticef("frame statistics\n%s", formatFrameStats(stats))
}

func formatFrameStats(stats renderer.FrameStats) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pass", "Effect", "Tracer", "Rays", "Samples", "Render time"})
	for index, stat := range stats.Passes {
		tracerName := "volumetric"
		if stat.Hybrid {
			tracerName = "hybrid"
		}
		table.Append([]string{
			fmt.Sprintf("%d", index),
			stat.Kind.String(),
			tracerName,
			fmt.Sprintf("%d", stat.Rays),
			fmt.Sprintf("%d", stat.Samples),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{"", "", "", "", "TOTAL", stats.RenderTime.String()})

	table.Render()
	return buf.String()
}
