package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"squeeze/internal/codec"
	"squeeze/internal/pipeline"
	"squeeze/internal/tui"
	"squeeze/pkg/imgutil"
)

var probeCmd = &cobra.Command{
	Use:   "probe <path>",
	Short: "Show what optimize would do, without changing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		canWebP := codec.Default().CanEncode(imgutil.MIMEWebP)

		if !info.IsDir() {
			src, err := loadSource(root)
			if err != nil {
				return err
			}
			printProbe(root, src, canWebP)
			return nil
		}

		var rows []probeRow
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !d.Type().IsRegular() {
				return nil
			}
			src, err := loadSource(path)
			if err != nil {
				// Unsupported files are not part of the report.
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			rows = append(rows, probeRow{path: rel, src: src})
			return nil
		})
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			fmt.Fprintln(os.Stdout, probeDimStyle.Render("no supported images found"))
			return nil
		}
		fmt.Fprintln(os.Stdout, renderProbeTable(rows, canWebP))
		return nil
	},
}

type probeRow struct {
	path string
	src  *pipeline.SourceImage
}

// renderProbeTable lists one image per row with its planned treatment.
func renderProbeTable(rows []probeRow, canWebP bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Type", "Size", "Dimensions", "Orientation", "Plan"})

	for _, row := range rows {
		dims := "?"
		if p, err := row.src.Dimensions(); err == nil {
			dims = fmt.Sprintf("%dx%d", p.X, p.Y)
		}
		tw.AppendRow(table.Row{
			row.path,
			row.src.Kind().String(),
			humanize.Bytes(uint64(row.src.Size())),
			dims,
			row.src.Orientation(),
			plan(row.src, canWebP),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Size", Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Name: "Dimensions", Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Name: "Orientation", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func loadSource(path string) (*pipeline.SourceImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return pipeline.NewSourceImage(filepath.Base(path), data, "")
}

func plan(src *pipeline.SourceImage, canWebP bool) string {
	if pipeline.Skip(src.Size()) {
		return "skip"
	}
	p := "compress"
	switch {
	case !cfg.Optimize.UseWebP:
	case !canWebP:
		p += " (webp unavailable)"
	case src.Kind() != imgutil.KindWebP:
		p += " + webp"
	}
	return p
}

func printProbe(path string, src *pipeline.SourceImage, canWebP bool) {
	fmt.Fprintf(os.Stdout, "%s\n", probeFileStyle.Render(path))

	line := func(label, value string) {
		fmt.Fprintf(os.Stdout, "  %s %s\n", probeLabelStyle.Render(label+":"), probeValueStyle.Render(value))
	}

	line("Type", src.Kind().String()+" ("+src.MIME()+")")
	line("Size", humanize.Bytes(uint64(src.Size())))
	if dims, err := src.Dimensions(); err == nil {
		line("Dimensions", fmt.Sprintf("%dx%d", dims.X, dims.Y))
		if limit := cfg.Optimize.MaxWidthOrHeight; dims.X > limit || dims.Y > limit {
			line("Resize", fmt.Sprintf("longest side capped at %d", limit))
		}
	} else {
		line("Dimensions", probeDimStyle.Render("unreadable: "+err.Error()))
	}
	line("Orientation", fmt.Sprintf("%d", src.Orientation()))
	line("WebP encoder", fmt.Sprintf("%t", canWebP))

	if pipeline.Skip(src.Size()) {
		line("Plan", probeDimStyle.Render("skip (at or below "+humanize.IBytes(uint64(pipeline.SkipThreshold))+")"))
		return
	}
	line("Plan", plan(src, canWebP))
}

var (
	probeFileStyle  = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	probeLabelStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	probeValueStyle = lipgloss.NewStyle().Foreground(tui.ColorInk)
	probeDimStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(probeCmd)
}
