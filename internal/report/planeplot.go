package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/burst-data/qscan/internal/tiling"
)

// planeGrid adapts a tiling plane to plotter.GridXYZ by resampling each row
// onto a common uniform time axis (nearest sample).
type planeGrid struct {
	plane *tiling.Plane
	times []float64
}

func newPlaneGrid(p *tiling.Plane, cols int) *planeGrid {
	g := &planeGrid{plane: p, times: make([]float64, cols)}
	dt := p.Duration / float64(cols)
	for i := range g.times {
		g.times[i] = p.Start + (float64(i)+0.5)*dt
	}
	return g
}

func (g *planeGrid) Dims() (c, r int) { return len(g.times), len(g.plane.Rows) }
func (g *planeGrid) X(c int) float64  { return g.times[c] }
func (g *planeGrid) Y(r int) float64  { return g.plane.Rows[r].CenterFrequency }

func (g *planeGrid) Z(c, r int) float64 {
	row := g.plane.Rows[r]
	if len(row.Times) == 0 {
		return 0
	}
	// Rows are uniformly sampled, so the nearest index is direct.
	dt := (row.Times[len(row.Times)-1] - row.Times[0]) / float64(len(row.Times)-1)
	if dt <= 0 {
		return row.Energies[0]
	}
	i := int((g.times[c] - row.Times[0]) / dt)
	if i < 0 {
		i = 0
	}
	if i >= len(row.Energies) {
		i = len(row.Energies) - 1
	}
	return row.Energies[i]
}

// RenderPlane saves a raster of the plane's normalized energies as a PNG.
// The plane must have at least one row with samples.
func RenderPlane(p *tiling.Plane, path string) error {
	if len(p.Rows) == 0 || len(p.Rows[0].Times) == 0 {
		return fmt.Errorf("plane Q=%.1f has no rows to raster", p.Q)
	}

	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("Q=%.1f plane", p.Q)
	plt.X.Label.Text = "Time (s)"
	plt.Y.Label.Text = "Frequency (Hz)"

	cols := 256
	if n := len(p.Rows[0].Times); n < cols {
		cols = n
	}
	hm := plotter.NewHeatMap(newPlaneGrid(p, cols), palette.Heat(12, 1))
	plt.Add(hm)

	if err := plt.Save(18*vg.Centimeter, 10*vg.Centimeter, path); err != nil {
		return fmt.Errorf("failed to save plane raster: %w", err)
	}
	return nil
}
