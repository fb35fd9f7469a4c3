// Package cld implements a deterministic, rule-based pipeline that converts
// free-form qualitative text into a causal loop diagram: named variables,
// polarity-signed causal edges between them, and classified feedback loops,
// with every claim traceable to the source sentence that justified it.
//
// The pipeline runs open coding (theme extraction) and axial coding
// (aggregation into variables) over sentence spans, extracts signed causal
// edges from cue phrases, consolidates duplicates, and enumerates feedback
// loops. Identical input and configuration always yield identical output.
package cld

// Input is one document handed to the pipeline. ID must be unique within a
// run; Text is required.
type Input struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	SourceURI string `json:"source_uri,omitempty" yaml:"source_uri,omitempty"`
}

// Document is a normalized input document. Text has unified newlines; all
// span offsets refer to it. Documents are immutable once created.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	SourceURI string `json:"source_uri,omitempty"`
	Text      string `json:"text"`
}

// Span is a half-open byte range [Start, End) into a document's normalized
// text. Spans are the provenance currency of the pipeline: every theme,
// variable, and edge carries the spans that justify it.
type Span struct {
	DocID       string `json:"doc_id"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	TextPreview string `json:"text_preview"`
}

// CodeType distinguishes open-coding themes from axial-coding variables.
type CodeType string

const (
	CodeTheme    CodeType = "theme"
	CodeVariable CodeType = "variable"
)

// Group is the stakeholder category a code belongs to.
type Group string

const (
	GroupPolicy         Group = "policy"
	GroupIndustry       Group = "industry"
	GroupUsers          Group = "users"
	GroupLocalAuthority Group = "local_authority"
	GroupOther          Group = "other"
)

// Code is a coded concept: a theme found by open coding, or a variable
// produced by axial coding from one or more themes. IDs are content-derived
// ("theme:<label>", "var:<label>") so repeated runs produce identical ids.
type Code struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     CodeType `json:"type"`
	Group    Group    `json:"group"`
	Evidence []Span   `json:"evidence"`
}

// Containment records that a variable contains a theme. It is strictly
// hierarchical and never implies causality.
type Containment struct {
	ParentCodeID string `json:"parent_code_id"`
	ChildCodeID  string `json:"child_code_id"`
	Relation     string `json:"relation"`
}

// ContainsRelation is the only relation kind a Containment carries.
const ContainsRelation = "contains"

// Polarity is the sign of a causal edge: "+" means cause and effect move
// together, "-" means they move oppositely.
type Polarity string

const (
	PolarityPositive Polarity = "+"
	PolarityNegative Polarity = "-"
)

// CausalEdge is a directed, signed, confidence-scored causal claim between
// two variables. Self-loops are discouraged but tolerated; Confidence is
// always within [0, 1].
type CausalEdge struct {
	ID             string   `json:"id"`
	FromVariableID string   `json:"from_variable_id"`
	ToVariableID   string   `json:"to_variable_id"`
	Polarity       Polarity `json:"polarity"`
	Confidence     float64  `json:"confidence"`
	Evidence       []Span   `json:"evidence"`
	Notes          string   `json:"notes,omitempty"`
}

// Graph is the consolidated causal loop diagram: variable codes plus merged,
// pruned edges.
type Graph struct {
	Variables []Code       `json:"variables"`
	Edges     []CausalEdge `json:"edges"`
}

// LoopType classifies a feedback loop by the sign product of its edges.
type LoopType string

const (
	LoopReinforcing LoopType = "reinforcing"
	LoopBalancing   LoopType = "balancing"
)

// Loop is a simple cycle in the consolidated graph. Evidence duplicates
// EdgeIDs for export convenience. Loops are derived data, recomputed fresh
// on every run.
type Loop struct {
	ID       string   `json:"id"`
	NodeIDs  []string `json:"node_ids"`
	EdgeIDs  []string `json:"edge_ids"`
	Type     LoopType `json:"type"`
	Evidence []string `json:"evidence"`
}

// Result is the full artifact bundle of one pipeline run.
type Result struct {
	Documents   []Document    `json:"documents"`
	Sentences   []Span        `json:"sentences"`
	Themes      []Code        `json:"themes"`
	Variables   []Code        `json:"variables"`
	Containment []Containment `json:"containment"`
	Edges       []CausalEdge  `json:"edges"`
	Graph       Graph         `json:"graph"`
	Loops       []Loop        `json:"loops"`
}
