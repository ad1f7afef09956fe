package pipeline

import "fmt"

// Stage names a node in the stage graph.
type Stage string

const (
	StageRouter         Stage = "router"
	StageCollector      Stage = "collector"
	StageAnalyzer       Stage = "analyzer"
	StageWriter         Stage = "writer"
	StageReviewer       Stage = "reviewer"
	StageOutputComposer Stage = "output_composer"
)

// Stage categories, used to group progress events and stored artifacts.
const (
	CategoryRouting    = "routing"
	CategoryProfile    = "profile"
	CategoryAnalysis   = "analysis"
	CategoryGeneration = "generation"
	CategoryReview     = "review"
	CategoryOutput     = "output"
)

// StageDefinition describes a stage for progress reporting.
type StageDefinition struct {
	Name     Stage
	Category string
	Message  string
}

// StageRegistry holds every stage in the graph.
var StageRegistry = map[Stage]StageDefinition{
	StageRouter:         {Name: StageRouter, Category: CategoryRouting, Message: "Classifying request"},
	StageCollector:      {Name: StageCollector, Category: CategoryProfile, Message: "Collecting user profile"},
	StageAnalyzer:       {Name: StageAnalyzer, Category: CategoryAnalysis, Message: "Analyzing job description"},
	StageWriter:         {Name: StageWriter, Category: CategoryGeneration, Message: "Writing tailored resume"},
	StageReviewer:       {Name: StageReviewer, Category: CategoryReview, Message: "Reviewing resume"},
	StageOutputComposer: {Name: StageOutputComposer, Category: CategoryOutput, Message: "Composing output"},
}

// Transition is a guarded edge. An empty Modes set fires unconditionally.
type Transition struct {
	From  Stage
	To    Stage
	Modes []Mode
}

// Transitions is the full edge table of the stage graph. For any stage and
// mode at most one edge fires.
var Transitions = []Transition{
	{From: StageRouter, To: StageCollector, Modes: []Mode{ModeFullPipeline}},
	{From: StageRouter, To: StageAnalyzer, Modes: []Mode{ModeWriteOnly, ModeReviewOnly, ModeAnalyzeOnly}},
	{From: StageCollector, To: StageAnalyzer},
	{From: StageAnalyzer, To: StageWriter, Modes: []Mode{ModeFullPipeline, ModeWriteOnly}},
	{From: StageAnalyzer, To: StageReviewer, Modes: []Mode{ModeReviewOnly}},
	{From: StageAnalyzer, To: StageOutputComposer, Modes: []Mode{ModeAnalyzeOnly}},
	{From: StageWriter, To: StageReviewer, Modes: []Mode{ModeFullPipeline}},
	{From: StageWriter, To: StageOutputComposer, Modes: []Mode{ModeWriteOnly}},
	{From: StageReviewer, To: StageOutputComposer, Modes: []Mode{ModeFullPipeline, ModeReviewOnly}},
}

func (t Transition) fires(m Mode) bool {
	if len(t.Modes) == 0 {
		return true
	}
	for _, allowed := range t.Modes {
		if allowed == m {
			return true
		}
	}
	return false
}

// Next returns the stage that follows from under mode m. ok is false when no
// edge fires.
func Next(from Stage, m Mode) (Stage, bool) {
	for _, t := range Transitions {
		if t.From == from && t.fires(m) {
			return t.To, true
		}
	}
	return "", false
}

// Path returns the ordered stages visited for mode m, starting at the router
// and ending at the output composer.
func Path(m Mode) ([]Stage, error) {
	if !m.Valid() {
		return nil, &ClassificationError{Raw: string(m)}
	}
	path := []Stage{StageRouter}
	current := StageRouter
	for current != StageOutputComposer {
		next, ok := Next(current, m)
		if !ok {
			return nil, fmt.Errorf("no transition from %s for mode %s", current, m)
		}
		if len(path) > len(StageRegistry) {
			return nil, fmt.Errorf("cycle detected at %s for mode %s", next, m)
		}
		path = append(path, next)
		current = next
	}
	return path, nil
}
