package grid

import (
	"encoding/json"
	"log/slog"
	"path"
	"strconv"

	"github.com/zeu5/rl-planner/experiment"
	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/types"
	"github.com/zeu5/rl-planner/util"
)

// ValueAnalyzer extracts the value heat map of one layer after planning
type ValueAnalyzer struct {
	model   *GridModel
	layer   int
	dataSet *ValueDataSet
}

var _ experiment.Analyzer = &ValueAnalyzer{}

func NewValueAnalyzer(model *GridModel, layer int) *ValueAnalyzer {
	return &ValueAnalyzer{model: model, layer: layer}
}

func (v *ValueAnalyzer) Analyze(_ int, _ string, planner *planning.Planner, _ planning.Result, _ []*types.Trace) {
	v.dataSet = NewValueDataSet(planner, v.model, v.layer)
}

func (v *ValueAnalyzer) DataSet() experiment.DataSet {
	return v.dataSet
}

func (v *ValueAnalyzer) Reset() {
	v.dataSet = nil
}

// ValueComparator records the heat map of every experiment
func ValueComparator(savePath string) experiment.Comparator {
	return func(run int, names []string, ds []experiment.DataSet) {
		for i := 0; i < len(names); i++ {
			dataSet, ok := ds[i].(*ValueDataSet)
			if !ok || dataSet == nil {
				continue
			}
			name := strconv.Itoa(run) + "_" + names[i] + "_values"
			if err := dataSet.Record(savePath, name); err != nil {
				slog.Default().Error("recording values", slog.String("name", name), slog.String("error", err.Error()))
			}
		}
	}
}

// VisitAnalyzer counts the cells visited by the rollouts
type VisitAnalyzer struct {
	traces []*types.Trace
}

var _ experiment.Analyzer = &VisitAnalyzer{}

func NewVisitAnalyzer() *VisitAnalyzer {
	return &VisitAnalyzer{traces: make([]*types.Trace, 0)}
}

func (v *VisitAnalyzer) Analyze(_ int, _ string, _ *planning.Planner, _ planning.Result, traces []*types.Trace) {
	v.traces = append(v.traces, traces...)
}

func (v *VisitAnalyzer) DataSet() experiment.DataSet {
	return countVisits(v.traces)
}

func (v *VisitAnalyzer) Reset() {
	v.traces = make([]*types.Trace, 0)
}

// VisitComparator saves the visit counts of every experiment as JSON
func VisitComparator(savePath string) experiment.Comparator {
	return func(run int, names []string, ds []experiment.DataSet) {
		for i := 0; i < len(names); i++ {
			filePath := path.Join(savePath, strconv.Itoa(run)+"_"+names[i]+"_visits.json")
			bs, err := json.Marshal(ds[i])
			if err == nil {
				err = util.WriteToFile(filePath, string(bs))
			}
			if err != nil {
				slog.Default().Error("saving visits", slog.String("path", filePath), slog.String("error", err.Error()))
			}
		}
	}
}
