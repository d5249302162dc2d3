package main

import (
	"context"
	"fmt"
	"image/color"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/pkg/log"
)

const (
	widthFlag  = "width"
	heightFlag = "height"
)

var (
	trustedColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	suspiciousColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

type plotResult struct {
	Output     string `json:"output" yaml:"output"`
	Rows       int    `json:"rows" yaml:"rows"`
	Suspicious []int  `json:"suspicious" yaml:"suspicious"`
}

func newPlotCmd() *cli.Command {
	return &cli.Command{
		Name:  "plot",
		Usage: "Draws each row's weight relative to uniform; the format follows the --out extension",
		Flags: runFlags(append(dataFlags(),
			&cli.StringFlag{
				Name:      outFlag,
				Aliases:   []string{"o"},
				Usage:     "Image file: .png, .svg, .pdf, .jpg or .tif",
				Value:     "weights.png",
				TakesFile: true,
			},
			&cli.Float64Flag{
				Name:  widthFlag,
				Usage: "Image width in inches",
				Value: 8,
			},
			&cli.Float64Flag{
				Name:  heightFlag,
				Usage: "Image height in inches",
				Value: 5,
			},
			topFlagWithDefault(10),
		)...),
		Action: cmdPlot,
	}
}

func cmdPlot(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	X, y, err := readData(cmd)
	if err != nil {
		return err
	}
	report, err := fitReport(cfg, X, y)
	if err != nil {
		return err
	}

	suspicious := report.MostSuspicious(cmd.Int(topFlag))
	title := fmt.Sprintf("Outlier weights (%s, %d rounds)", cfg.Policy, report.Iterations)
	p, err := plotWeights(report.Weights, suspicious, title)
	if err != nil {
		return err
	}

	out := cmd.String(outFlag)
	w := vg.Length(cmd.Float64(widthFlag)) * vg.Inch
	h := vg.Length(cmd.Float64(heightFlag)) * vg.Inch
	if err := p.Save(w, h, out); err != nil {
		return errors.Wrapf(err, "failed to save plot: %s", out)
	}
	log.GetLoggerWithName("cli").Info("Plot saved", log.PathKey, out)

	return printResult(cmd, &plotResult{
		Output:     out,
		Rows:       len(report.Weights),
		Suspicious: suspicious,
	})
}

// plotWeights scatters n·w_i against the row index, so 1 marks a row that
// kept its uniform share. The suspicious rows are drawn in a second color.
func plotWeights(weights []float64, suspicious []int, title string) (*plot.Plot, error) {
	if len(weights) == 0 {
		return nil, errors.New("no weights to plot")
	}
	n := float64(len(weights))

	flagged := make(map[int]bool, len(suspicious))
	for _, i := range suspicious {
		flagged[i] = true
	}
	trusted := make(plotter.XYs, 0, len(weights))
	odd := make(plotter.XYs, 0, len(suspicious))
	for i, w := range weights {
		pt := plotter.XY{X: float64(i), Y: n * w}
		if flagged[i] {
			odd = append(odd, pt)
		} else {
			trusted = append(trusted, pt)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Row"
	p.Y.Label.Text = "Weight × n"
	p.Add(plotter.NewGrid())

	uniform, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 1}, {X: n - 1, Y: 1}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create uniform line")
	}
	uniform.Width = vg.Points(1)
	uniform.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(uniform)
	p.Legend.Add("Uniform", uniform)

	for _, series := range []struct {
		name string
		xys  plotter.XYs
		c    color.Color
	}{
		{"Trusted", trusted, trustedColor},
		{"Suspicious", odd, suspiciousColor},
	} {
		if len(series.xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(series.xys)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create %s scatter", series.name)
		}
		s.GlyphStyle.Color = series.c
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(series.name, s)
	}
	p.Legend.Top = true

	return p, nil
}
