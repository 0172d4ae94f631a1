// Package plotting は学習過程と復号結果を gonum/plot で画像に書き出します。
// 出力形式はファイルの拡張子（.png, .svg, .pdf 等）で決まります。
package plotting

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

const (
	defaultWidth  = 8 * vg.Inch
	defaultHeight = 4 * vg.Inch
)

// SaveLogLikelihoodTrace は反復ごとの対数尤度を折れ線グラフとして保存する
func SaveLogLikelihoodTrace(trace []float64, file string) error {
	if len(trace) == 0 {
		return errors.NewEmptyDataError("SaveLogLikelihoodTrace")
	}

	pts := make(plotter.XYs, len(trace))
	for i, ll := range trace {
		pts[i].X = float64(i + 1)
		pts[i].Y = ll
	}

	p := plot.New()
	p.Title.Text = "Baum-Welch log-likelihood"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "log-likelihood"
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "failed to build trace line")
	}
	line.Color = plotutil.Color(0)
	points.Shape = plotutil.Shape(0)
	p.Add(line, points)

	return save(p, file)
}

// SaveRegimeChart は観測値を時刻順に散布図で描き、復号された状態ごとに色分けして保存する
// names が nil なら "state i" を凡例に使います。
func SaveRegimeChart(obs []float64, path []int, names []string, file string) error {
	const op = "SaveRegimeChart"
	if len(obs) == 0 {
		return errors.NewEmptyDataError(op)
	}
	if len(path) != len(obs) {
		return errors.NewDimensionError(op, len(obs), len(path), 0)
	}

	nStates := 0
	for _, s := range path {
		if s < 0 {
			return errors.NewValueError(op, fmt.Sprintf("negative state %d", s))
		}
		if s+1 > nStates {
			nStates = s + 1
		}
	}
	if names != nil && len(names) < nStates {
		return errors.NewDimensionError(op, nStates, len(names), 0)
	}

	groups := make([]plotter.XYs, nStates)
	for t, s := range path {
		groups[s] = append(groups[s], plotter.XY{X: float64(t), Y: obs[t]})
	}

	p := plot.New()
	p.Title.Text = "Decoded regimes"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "observation"
	p.Add(plotter.NewGrid())

	for s, pts := range groups {
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrapf(err, "failed to build scatter for state %d", s)
		}
		sc.GlyphStyle.Color = plotutil.Color(s)
		sc.GlyphStyle.Shape = plotutil.Shape(s)
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)

		label := fmt.Sprintf("state %d", s)
		if names != nil {
			label = names[s]
		}
		p.Legend.Add(label, sc)
	}
	p.Legend.Top = true

	return save(p, file)
}

// save はgonum/plotの描画中のpanicもエラーとして返します。
func save(p *plot.Plot, file string) error {
	return errors.SafeExecute("plotting.save", func() error {
		if err := p.Save(defaultWidth, defaultHeight, file); err != nil {
			return errors.Wrapf(err, "failed to save plot to %s", file)
		}
		return nil
	})
}
