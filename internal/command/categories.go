package command

import (
	"fmt"

	"qr-extrude/internal/config"
	"qr-extrude/pkg/colorutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
)

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"cat"},
		Usage:   "show or edit the category table",
		Action:  listCategories,
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "update one category and save the settings file",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "color", Usage: "reference color as rgb(r, g, b) or #rrggbb"},
					&cli.IntFlag{Name: "tolerance", Usage: "per-channel tolerance 0..255"},
					&cli.Float64Flag{Name: "height", Usage: "extrusion height"},
				},
				Action: setCategory,
			},
		},
	}
}

func listCategories(c *cli.Context) error {
	s, _, err := loadSettings(c)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Name", "Color", "Hex", "Tolerance", "Height"})
	for i, cat := range s.Categories {
		t.AppendRow(table.Row{i + 1, cat.Name, cat.Color.String(), cat.Color.Hex(), cat.Tolerance, cat.Height})
	}
	_, err = fmt.Fprintln(c.App.Writer, t.Render())
	return err
}

func setCategory(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("category name required")
	}

	s, _, err := loadSettings(c)
	if err != nil {
		return err
	}

	var parsed *colorutil.RGB
	if c.IsSet("color") {
		rgb, err := colorutil.Parse(c.String("color"))
		if err != nil {
			return err
		}
		parsed = &rgb
	}

	table, err := config.NewTable(s.Categories)
	if err != nil {
		return err
	}
	err = table.Update(name, func(cat *config.Category) {
		if parsed != nil {
			cat.Color = *parsed
		}
		if c.IsSet("tolerance") {
			cat.Tolerance = c.Int("tolerance")
		}
		if c.IsSet("height") {
			cat.Height = c.Float64("height")
		}
	})
	if err != nil {
		return err
	}

	s.Categories = table.Snapshot()
	if err := s.Save(c.String(flagSettings)); err != nil {
		return err
	}
	cat, _ := table.Lookup(name)
	fmt.Fprintf(c.App.Writer, "%s: %s tolerance %d height %g\n", cat.Name, cat.Color, cat.Tolerance, cat.Height)
	return nil
}
