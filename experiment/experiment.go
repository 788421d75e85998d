package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/policies"
	"github.com/zeu5/rl-planner/types"
	"github.com/zeu5/rl-planner/util"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// PolicyConstructor builds the rollout policy over the values of a planner
type PolicyConstructor func(planning.ValueReader) policies.Policy

// Experiment plans with one planner and rolls out the resulting policy
type Experiment struct {
	Name      string
	planner   *planning.Planner
	model     types.Model
	newPolicy PolicyConstructor
}

func NewExperiment(name string, planner *planning.Planner, model types.Model, newPolicy PolicyConstructor) *Experiment {
	return &Experiment{
		Name:      name,
		planner:   planner,
		model:     model,
		newPolicy: newPolicy,
	}
}

func (e *Experiment) Planner() *planning.Planner {
	return e.planner
}

type experimentRunConfig struct {
	CurrentRun int
	Episodes   int
	Horizon    int
	Seed       uint64
	Analyzers  []Analyzer
	Context    context.Context

	RecordTraces   bool
	RecordPlanner  bool
	ReportSavePath string

	LongestExpNameLen int
}

func (e *Experiment) recordTraces(rConfig *experimentRunConfig, traces []*types.Trace) error {
	tracesFile := path.Join(rConfig.ReportSavePath, "traces", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".jsonl")
	lines := make([]string, len(traces))
	for i, trace := range traces {
		bs, err := json.Marshal(trace.Marshalable())
		if err != nil {
			return err
		}
		lines[i] = string(bs)
	}
	return util.AppendToFile(tracesFile, lines...)
}

// Run plans from the start state and rolls out the policy. The analyzers see
// the plan result and every trace.
func (e *Experiment) Run(start types.State, rConfig *experimentRunConfig) error {
	fmt.Printf("\rExp:%*s, planning...", rConfig.LongestExpNameLen, e.Name)
	result, err := e.planner.Plan(rConfig.Context, start)
	if err != nil {
		fmt.Println("")
		return fmt.Errorf("experiment %s: %w", e.Name, err)
	}

	agent := NewAgent(&AgentConfig{
		Episodes: rConfig.Episodes,
		Horizon:  rConfig.Horizon,
		Seed:     rConfig.Seed + uint64(rConfig.CurrentRun),
	}, e.model, e.newPolicy(e.planner))
	traces := agent.Run(rConfig.Context, start)

	fmt.Printf("\rExp:%*s, Status:%s, Reachable:%d, Sweeps:%d, Backups:%d, Episodes:%d/%d, Duration:%s\n",
		rConfig.LongestExpNameLen, e.Name, result.Status, result.Reachable, result.Sweeps, result.Backups,
		len(traces), rConfig.Episodes, result.Duration)

	if rConfig.RecordTraces {
		if err := e.recordTraces(rConfig, traces); err != nil {
			return err
		}
	}
	if rConfig.RecordPlanner {
		recordPath := path.Join(rConfig.ReportSavePath, "planners", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".json")
		if err := e.planner.Record(recordPath); err != nil {
			return err
		}
	}

	for _, a := range rConfig.Analyzers {
		a.Analyze(rConfig.CurrentRun, e.Name, e.planner, result, traces)
	}
	return nil
}

// Reset clears the planner so the next run starts from scratch
func (e *Experiment) Reset() {
	e.planner.Reset()
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs     int    `json:"runs"`
	Episodes int    `json:"episodes"`
	Horizon  int    `json:"horizon"`
	Seed     uint64 `json:"seed"`

	RecordPath    string `json:"record_path"`
	RecordTraces  bool   `json:"record_traces"`
	RecordPlanner bool   `json:"record_planner"`
}

// Comparison runs the experiments on the same start state.
// The plan results and traces are analyzed and the datasets compared per run.
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]Analyzer
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
}

func NewComparison(config *ComparisonConfig) *Comparison {
	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]Analyzer),
		comparators: make(map[string]Comparator),
		cConfig:     config,
	}
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// createFolders creates the record path and the trace and planner folders under it
func (c *Comparison) createFolders() error {
	folders := []string{c.cConfig.RecordPath}
	if c.cConfig.RecordTraces {
		folders = append(folders, path.Join(c.cConfig.RecordPath, "traces"))
	}
	if c.cConfig.RecordPlanner {
		folders = append(folders, path.Join(c.cConfig.RecordPath, "planners"))
	}
	for _, folder := range folders {
		if err := os.MkdirAll(folder, 0777); err != nil {
			return fmt.Errorf("creating %s: %w", folder, err)
		}
	}
	return nil
}

func (c *Comparison) recordConfig() error {
	out := make(map[string]interface{})
	out["config"] = c.cConfig

	experiments := make([]string, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
		out[e.Name] = e.planner.Config()
	}
	out["experiments"] = experiments
	out["analyzers"] = c.analyzerNames()

	bs, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return util.WriteToFile(path.Join(c.cConfig.RecordPath, "comparison_config.json"), string(bs))
}

func (c *Comparison) analyzerNames() []string {
	names := maps.Keys(c.analyzers)
	slices.Sort(names)
	return names
}

// Run the comparison
func (c *Comparison) Run(ctx context.Context, start types.State) error {
	if err := c.createFolders(); err != nil {
		return err
	}
	if err := c.recordConfig(); err != nil {
		return err
	}

	longestNameLen := 0
	for _, e := range c.Experiments {
		if len(e.Name) > longestNameLen {
			longestNameLen = len(e.Name)
		}
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		fmt.Printf("Run %d\n", run+1)
		datasets := make(map[string][]DataSet)
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}

		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := e.Run(start, c.prepareRunConfig(ctx, run, longestNameLen)); err != nil {
				return err
			}
			for name, a := range c.analyzers {
				datasets[name][i] = a.DataSet()
				a.Reset()
			}
			names[i] = e.Name
			e.Reset()
		}
		for _, name := range c.analyzerNames() {
			c.comparators[name](run, names, datasets[name])
		}
	}
	return nil
}

func (c *Comparison) prepareRunConfig(ctx context.Context, run, longestExpNameLen int) *experimentRunConfig {
	rCfg := &experimentRunConfig{
		CurrentRun:     run,
		Episodes:       c.cConfig.Episodes,
		Horizon:        c.cConfig.Horizon,
		Seed:           c.cConfig.Seed,
		Analyzers:      make([]Analyzer, 0),
		Context:        ctx,
		RecordTraces:   c.cConfig.RecordTraces,
		RecordPlanner:  c.cConfig.RecordPlanner,
		ReportSavePath: c.cConfig.RecordPath,

		LongestExpNameLen: longestExpNameLen,
	}
	for _, name := range c.analyzerNames() {
		rCfg.Analyzers = append(rCfg.Analyzers, c.analyzers[name])
	}
	return rCfg
}
