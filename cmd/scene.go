package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/playground/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the geometry kinds that can be instantiated as primitives.
func ListAssets(ctx *cli.Context) error {
	setupLogging(ctx)

	catalog, err := setupCatalog(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Kind", "Source"})
	for _, kind := range catalog.Kinds() {
		source := "procedural"
		if !catalog.IsProcedural(kind) {
			source, _ = catalog.Path(kind)
		}
		table.Append([]string{kind, source})
	}
	table.SetFooter([]string{fmt.Sprintf("%d kinds", len(catalog.Kinds())), ""})
	table.Render()

	logger.Noticef("available geometry\n%s", buf.String())
	return nil
}

// Display the registry contents for the primitives requested via flags.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	engine, err := setupEngine(ctx, renderer.DefaultOptions())
	if err != nil {
		return err
	}
	if err = engine.RebuildAccelerations(); err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", engine.Registry().Stats())
	return nil
}
