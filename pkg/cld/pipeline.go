package cld

import (
	"context"
	"fmt"

	"github.com/HexaField/causalmap/pkg/logger"
)

// ExportBundle lists the artifact paths written by an Exporter.
type ExportBundle struct {
	GraphJSON      string `json:"graph_json"`
	NodesCSV       string `json:"nodes_csv"`
	EdgesCSV       string `json:"edges_csv"`
	ProvenanceHTML string `json:"provenance_html"`
	Diagram        string `json:"diagram"`
}

// Exporter renders a pipeline result to files. The core never performs file
// I/O itself; export is an injected collaborator invoked after the graph and
// loops are finalized.
type Exporter interface {
	Export(ctx context.Context, result *Result, dir string) (*ExportBundle, error)
}

// Options configures a pipeline run. All fields are optional.
type Options struct {
	// Overrides is deep-merged over DefaultConfig for this run.
	Overrides *Overrides
	// Exporter, when set together with ExportDir, receives the finished
	// result.
	Exporter  Exporter
	ExportDir string
}

// RunResult bundles the pipeline artifacts with the export paths, when an
// export destination was requested.
type RunResult struct {
	*Result
	Export *ExportBundle `json:"export,omitempty"`
}

// Run executes the full extraction pipeline: ingest, open coding, axial
// coding, causality extraction, consolidation, and loop discovery, threading
// one merged configuration through every stage.
//
// An empty outcome (no variables, no edges) is reported as a valid result;
// deciding whether that constitutes a failure is left to the caller. The
// only errors surfaced here are invalid configuration and exporter failures.
func Run(ctx context.Context, inputs []Input, opts Options) (*RunResult, error) {
	cfg, err := DefaultConfig().Merge(opts.Overrides)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	docs, sentences := Ingest(ctx, inputs)
	logger.Debug("[Pipeline] Ingested documents", "documents", len(docs), "sentences", len(sentences))

	themes := ExtractThemes(docs, sentences, cfg)
	logger.Debug("[Pipeline] Open coding completed", "themes", len(themes))

	variables, containment := Aggregate(themes, cfg)
	logger.Debug("[Pipeline] Axial coding completed", "variables", len(variables))

	rawEdges := ExtractEdges(docs, sentences, variables, cfg)
	edges := Consolidate(rawEdges, cfg)
	logger.Debug("[Pipeline] Causality extraction completed", "raw_edges", len(rawEdges), "edges", len(edges))

	graph := BuildGraph(variables, edges)
	loops := FindLoops(graph, cfg.MaxLoopDepth)
	logger.Info("[Pipeline] Extraction completed",
		"variables", len(variables), "edges", len(edges), "loops", len(loops))

	result := &Result{
		Documents:   docs,
		Sentences:   sentences,
		Themes:      themes,
		Variables:   variables,
		Containment: containment,
		Edges:       edges,
		Graph:       graph,
		Loops:       loops,
	}

	run := &RunResult{Result: result}
	if opts.Exporter != nil && opts.ExportDir != "" {
		bundle, err := opts.Exporter.Export(ctx, result, opts.ExportDir)
		if err != nil {
			return nil, fmt.Errorf("failed to export result: %w", err)
		}
		run.Export = bundle
		logger.Info("[Pipeline] Exported artifacts", "dir", opts.ExportDir)
	}

	return run, nil
}

// HasDiagram reports whether the run produced a usable diagram: at least one
// variable and one edge. Interactive callers typically treat a false value
// as "no causal relationships found".
func (r *Result) HasDiagram() bool {
	return len(r.Graph.Variables) > 0 && len(r.Graph.Edges) > 0
}
