package grid

import (
	"encoding/json"
	"math"
	"path"

	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/types"
	"github.com/zeu5/rl-planner/util"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ValueDataSet holds the values of one layer of the grid, by row and column.
// Cells that were never discovered are missing.
type ValueDataSet struct {
	Values map[int]map[int]float64
	Height int
	Width  int
	Layer  int

	// value drawn for undiscovered cells
	floor float64
}

var _ plotter.GridXYZ = &ValueDataSet{}

// NewValueDataSet reads the values of the layer's discovered cells from the planner
func NewValueDataSet(planner *planning.Planner, g *GridModel, layer int) *ValueDataSet {
	dataSet := &ValueDataSet{
		Values: make(map[int]map[int]float64),
		Height: g.Height,
		Width:  g.Width,
		Layer:  layer,
	}
	for _, key := range planner.Reachable() {
		s, ok := planner.State(key)
		if !ok {
			continue
		}
		pos := s.(*Position)
		if pos.K != layer {
			continue
		}
		if _, ok := dataSet.Values[pos.I]; !ok {
			dataSet.Values[pos.I] = make(map[int]float64)
		}
		dataSet.Values[pos.I][pos.J] = planner.Value(key)
	}
	dataSet.floor = dataSet.Min()
	return dataSet
}

func (g *ValueDataSet) Dims() (int, int) {
	return g.Width, g.Height
}

// Z of an undiscovered cell is the minimum value at construction, so it
// shows as the coldest color
func (g *ValueDataSet) Z(j, i int) float64 {
	if v, ok := g.Values[i][j]; ok {
		return v
	}
	return g.floor
}

func (g *ValueDataSet) X(j int) float64 {
	return float64(j)
}

func (g *ValueDataSet) Y(i int) float64 {
	return float64(i)
}

func (g *ValueDataSet) Min() float64 {
	min := math.Inf(1)
	for _, vals := range g.Values {
		for _, v := range vals {
			min = math.Min(min, v)
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

func (g *ValueDataSet) Max() float64 {
	max := math.Inf(-1)
	for _, vals := range g.Values {
		for _, v := range vals {
			max = math.Max(max, v)
		}
	}
	if math.IsInf(max, -1) {
		return 0
	}
	return max
}

// Discovered counts the cells with a value
func (g *ValueDataSet) Discovered() int {
	count := 0
	for _, vals := range g.Values {
		count += len(vals)
	}
	return count
}

// Record writes the dataset as JSON and, when the layer has cells with
// different values, a heat map next to it
func (g *ValueDataSet) Record(savePath, name string) error {
	bs, err := json.Marshal(g)
	if err != nil {
		return err
	}
	if err := util.WriteToFile(path.Join(savePath, name+".json"), string(bs)); err != nil {
		return err
	}
	if g.Discovered() == 0 || g.Min() == g.Max() {
		return nil
	}

	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"
	p.Add(plotter.NewHeatMap(g, palette.Heat(20, 1)))
	return p.Save(6*vg.Inch, 6*vg.Inch, path.Join(savePath, name+".png"))
}

// VisitDataSet counts the visits of every cell of all layers in rollout traces
type VisitDataSet struct {
	Visits map[int]map[int]int
	Height int
	Width  int
}

// countVisits collects the positions visited by rollouts
func countVisits(traces []*types.Trace) *VisitDataSet {
	dataSet := &VisitDataSet{
		Visits: make(map[int]map[int]int),
		Height: 0,
		Width:  0,
	}
	for _, trace := range traces {
		for i := 0; i < trace.Len(); i++ {
			state, _, _, _, _ := trace.Get(i)
			gridPosition := state.(*Position)
			if _, ok := dataSet.Visits[gridPosition.I]; !ok {
				dataSet.Visits[gridPosition.I] = make(map[int]int)
			}
			if gridPosition.I+1 > dataSet.Height {
				dataSet.Height = gridPosition.I + 1
			}
			if gridPosition.J+1 > dataSet.Width {
				dataSet.Width = gridPosition.J + 1
			}
			dataSet.Visits[gridPosition.I][gridPosition.J] += 1
		}
	}
	return dataSet
}
