package experiment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"

	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/types"
	"github.com/zeu5/rl-planner/util"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Generic Dataset that contains information after processing a plan and its rollouts
type DataSet interface{}

// Analyzer compresses the plan result and the rollout traces of one experiment to a DataSet
type Analyzer interface {
	// run, experiment, planner, plan result, rollout traces
	Analyze(int, string, *planning.Planner, planning.Result, []*types.Trace)
	DataSet() DataSet
	Reset()
}

// Comparator differentiates between different datasets with associated names
// run, experiment names, datasets
type Comparator func(int, []string, []DataSet)

// ConvergenceAnalyzer keeps the Bellman error history of the plan
type ConvergenceAnalyzer struct {
	result planning.Result
}

var _ Analyzer = &ConvergenceAnalyzer{}

func NewConvergenceAnalyzer() *ConvergenceAnalyzer {
	return &ConvergenceAnalyzer{}
}

func (c *ConvergenceAnalyzer) Analyze(_ int, _ string, _ *planning.Planner, result planning.Result, _ []*types.Trace) {
	c.result = result
}

func (c *ConvergenceAnalyzer) DataSet() DataSet {
	return c.result
}

func (c *ConvergenceAnalyzer) Reset() {
	c.result = planning.Result{}
}

// ConvergencePlotter draws the Bellman error history of every experiment, per
// sweep for value iteration and per backup for prioritized sweeping. The
// results are saved as JSON next to the plot.
func ConvergencePlotter(plotPath string) Comparator {
	createFolder(plotPath)
	return func(run int, names []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Convergence"
		p.X.Label.Text = "Update"
		p.Y.Label.Text = "Bellman error"
		results := make(map[string]planning.Result)
		for i := 0; i < len(names); i++ {
			result := ds[i].(planning.Result)
			results[names[i]] = result
			if len(result.History) == 0 {
				continue
			}
			points := make(plotter.XYs, len(result.History))
			for j, delta := range result.History {
				points[j] = plotter.XY{
					X: float64(j + 1),
					Y: delta,
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
		}
		plotFile := path.Join(plotPath, strconv.Itoa(run)+"_convergence.png")
		if err := p.Save(8*vg.Inch, 8*vg.Inch, plotFile); err != nil {
			slog.Default().Error("saving plot", slog.String("path", plotFile), slog.String("error", err.Error()))
		}
		saveJSON(path.Join(plotPath, strconv.Itoa(run)+"_results.json"), results)
	}
}

// ReturnDataSet summarizes the discounted returns of the rollouts
type ReturnDataSet struct {
	Returns []float64 `json:"returns"`
	Mean    float64   `json:"mean"`
	StdDev  float64   `json:"std_dev"`
	// Value is the planned value of the start state
	Value float64 `json:"value"`
}

// ReturnAnalyzer computes the discounted return of every rollout
type ReturnAnalyzer struct {
	discount float64
	dataSet  *ReturnDataSet
}

var _ Analyzer = &ReturnAnalyzer{}

func NewReturnAnalyzer(discount float64) *ReturnAnalyzer {
	return &ReturnAnalyzer{
		discount: discount,
		dataSet:  &ReturnDataSet{Returns: make([]float64, 0)},
	}
}

func (r *ReturnAnalyzer) Analyze(_ int, _ string, planner *planning.Planner, _ planning.Result, traces []*types.Trace) {
	for _, trace := range traces {
		r.dataSet.Returns = append(r.dataSet.Returns, trace.Return(r.discount))
		if trace.Len() > 0 {
			start, _, _, _, _ := trace.Get(0)
			r.dataSet.Value = planner.StateValue(start)
		}
	}
	switch len(r.dataSet.Returns) {
	case 0:
	case 1:
		r.dataSet.Mean = r.dataSet.Returns[0]
	default:
		r.dataSet.Mean, r.dataSet.StdDev = stat.MeanStdDev(r.dataSet.Returns, nil)
	}
}

func (r *ReturnAnalyzer) DataSet() DataSet {
	return r.dataSet
}

func (r *ReturnAnalyzer) Reset() {
	r.dataSet = &ReturnDataSet{Returns: make([]float64, 0)}
}

// ReturnComparator prints the mean return of every experiment against its
// planned value and saves the datasets
func ReturnComparator(savePath string) Comparator {
	createFolder(savePath)
	return func(run int, names []string, ds []DataSet) {
		out := make(map[string]*ReturnDataSet)
		for i := 0; i < len(names); i++ {
			dataSet := ds[i].(*ReturnDataSet)
			out[names[i]] = dataSet
			fmt.Printf("Mean return: %.4f (std %.4f, planned %.4f) for experiment: %s\n",
				dataSet.Mean, dataSet.StdDev, dataSet.Value, names[i])
		}
		saveJSON(path.Join(savePath, strconv.Itoa(run)+"_returns.json"), out)
	}
}

// SuccessAnalyzer counts the rollouts that end in a state satisfying the predicate
type SuccessAnalyzer struct {
	predicate func(types.State) bool
	successes int
	total     int
}

var _ Analyzer = &SuccessAnalyzer{}

func NewSuccessAnalyzer(predicate func(types.State) bool) *SuccessAnalyzer {
	return &SuccessAnalyzer{predicate: predicate}
}

func (s *SuccessAnalyzer) Analyze(_ int, _ string, _ *planning.Planner, _ planning.Result, traces []*types.Trace) {
	for _, trace := range traces {
		s.total += 1
		if _, _, _, last, ok := trace.Last(); ok && s.predicate(last) {
			s.successes += 1
		}
	}
}

// DataSet is the success rate
func (s *SuccessAnalyzer) DataSet() DataSet {
	if s.total == 0 {
		return 0.0
	}
	return float64(s.successes) / float64(s.total)
}

func (s *SuccessAnalyzer) Reset() {
	s.successes = 0
	s.total = 0
}

func SuccessComparator() Comparator {
	return func(run int, names []string, ds []DataSet) {
		for i := 0; i < len(names); i++ {
			fmt.Printf("Success rate: %5.1f%% for experiment: %s\n", ds[i].(float64)*100, names[i])
		}
	}
}

// createFolder creates dir for a comparator, failures are logged since
// comparators cannot return errors
func createFolder(dir string) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		slog.Default().Error("creating folder", slog.String("path", dir), slog.String("error", err.Error()))
	}
}

func saveJSON(filePath string, v interface{}) {
	bs, err := json.Marshal(v)
	if err == nil {
		err = util.WriteToFile(filePath, string(bs))
	}
	if err != nil {
		slog.Default().Error("saving results", slog.String("path", filePath), slog.String("error", err.Error()))
	}
}
