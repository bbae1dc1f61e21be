package main

import (
	"os"

	"github.com/achilleasa/playground/cmd"
	"github.com/achilleasa/playground/log"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "playground"
	app.Usage = "render volumetric scenes combined with surface primitives"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "assets",
			Value: "",
			Usage: "folder with wavefront mesh files to register as geometry kinds",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render scene",
			Subcommands: []cli.Command{
				{
					Name:  "frame",
					Usage: "render single frame",
					Description: `
Render a frame of a generated point cloud combined with any surface primitives
specified via the --primitive flag. Progressive passes are accumulated until
all enabled effects have converged. The output format is selected by the
extension of the output file (png, tiff or bmp).`,
					Flags: append([]cli.Flag{
						cli.StringFlag{
							Name:  "out, o",
							Value: "frame.png",
							Usage: "image filename for the rendered frame",
						},
					}, cmd.RenderFlags...),
					Action: cmd.RenderFrame,
				},
				{
					Name:  "interactive",
					Usage: "render interactive view of the scene",
					Description: `
Open a window with a continuously refined view of the scene. Use the arrow keys
to move the camera and the mouse to rotate (left button) or pan (right button).
Press A, D or N to toggle antialiasing, depth of field and denoising, M to cycle
the antialiasing mode and TAB to toggle the stats overlay.`,
					Flags:  cmd.RenderFlags,
					Action: cmd.RenderInteractive,
				},
			},
		},
		{
			Name:   "assets",
			Usage:  "list available geometry kinds",
			Action: cmd.ListAssets,
		},
		{
			Name:   "scene",
			Usage:  "display information about the scene primitives",
			Flags:  cmd.SceneFlags,
			Action: cmd.ShowSceneInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("playground").Error(err)
		os.Exit(1)
	}
}
