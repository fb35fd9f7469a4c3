// Package export renders pipeline results to files: the canonical JSON
// artifact, flat CSV tables for spreadsheet work, a provenance report linking
// every claim back to its source sentences, and a mermaid diagram of the
// causal loop graph.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HexaField/causalmap/pkg/cld"
	"github.com/HexaField/causalmap/pkg/logger"
)

const (
	graphJSONName      = "graph.json"
	nodesCSVName       = "nodes.csv"
	edgesCSVName       = "edges.csv"
	provenanceHTMLName = "provenance.html"
	diagramName        = "diagram.mmd"
)

// FileExporter writes all artifacts of a run into one directory. Output is
// deterministic: identical results produce byte-identical files.
type FileExporter struct{}

var _ cld.Exporter = (*FileExporter)(nil)

func NewFileExporter() *FileExporter {
	return &FileExporter{}
}

func (e *FileExporter) Export(ctx context.Context, result *cld.Result, dir string) (*cld.ExportBundle, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	bundle := &cld.ExportBundle{
		GraphJSON:      filepath.Join(dir, graphJSONName),
		NodesCSV:       filepath.Join(dir, nodesCSVName),
		EdgesCSV:       filepath.Join(dir, edgesCSVName),
		ProvenanceHTML: filepath.Join(dir, provenanceHTMLName),
		Diagram:        filepath.Join(dir, diagramName),
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(bundle.GraphJSON, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", graphJSONName, err)
	}

	if err := os.WriteFile(bundle.NodesCSV, renderNodesCSV(result.Graph), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", nodesCSVName, err)
	}
	if err := os.WriteFile(bundle.EdgesCSV, renderEdgesCSV(result.Graph), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", edgesCSVName, err)
	}

	html, err := renderProvenance(result)
	if err != nil {
		return nil, fmt.Errorf("failed to render provenance report: %w", err)
	}
	if err := os.WriteFile(bundle.ProvenanceHTML, html, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", provenanceHTMLName, err)
	}

	if err := os.WriteFile(bundle.Diagram, []byte(renderMermaid(result.Graph, result.Loops)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", diagramName, err)
	}

	logger.Debug("[Export] Wrote artifacts",
		"dir", dir, "variables", len(result.Graph.Variables), "edges", len(result.Graph.Edges), "loops", len(result.Loops))
	return bundle, nil
}

func renderNodesCSV(g cld.Graph) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"id", "label", "type", "group", "evidence_count"})
	for _, v := range g.Variables {
		w.Write([]string{
			v.ID,
			v.Label,
			string(v.Type),
			string(v.Group),
			strconv.Itoa(len(v.Evidence)),
		})
	}
	w.Flush()
	return buf.Bytes()
}

func renderEdgesCSV(g cld.Graph) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"id", "from_variable_id", "to_variable_id", "polarity", "confidence", "evidence_count"})
	for _, e := range g.Edges {
		w.Write([]string{
			e.ID,
			e.FromVariableID,
			e.ToVariableID,
			string(e.Polarity),
			strconv.FormatFloat(e.Confidence, 'f', -1, 64),
			strconv.Itoa(len(e.Evidence)),
		})
	}
	w.Flush()
	return buf.Bytes()
}

// renderMermaid emits a left-to-right flowchart with polarity edge labels.
// Loop membership is appended as comments so the diagram source stays valid
// for renderers that do not understand them.
func renderMermaid(g cld.Graph, loops []cld.Loop) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	ids := make(map[string]string, len(g.Variables))
	for i, v := range g.Variables {
		id := "n" + strconv.Itoa(i)
		ids[v.ID] = id
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", id, strings.ReplaceAll(v.Label, `"`, "'"))
	}
	for _, e := range g.Edges {
		from, okFrom := ids[e.FromVariableID]
		to, okTo := ids[e.ToVariableID]
		if !okFrom || !okTo {
			continue
		}
		fmt.Fprintf(&b, "    %s -->|%s| %s\n", from, string(e.Polarity), to)
	}
	for _, loop := range loops {
		nodes := make([]string, 0, len(loop.NodeIDs))
		for _, nodeID := range loop.NodeIDs {
			if id, ok := ids[nodeID]; ok {
				nodes = append(nodes, id)
			}
		}
		fmt.Fprintf(&b, "    %%%% %s %s: %s\n", loop.ID, loop.Type, strings.Join(nodes, " -> "))
	}
	return b.String()
}

var provenanceTmpl = template.Must(template.New("provenance").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Causal Loop Diagram Provenance</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-bottom: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
blockquote { color: #555; margin: 0.2rem 0; }
</style>
</head>
<body>
<h1>Causal Loop Diagram Provenance</h1>

<h2>Variables</h2>
{{range .Graph.Variables}}
<h3>{{.Label}} <small>({{.ID}}, group: {{.Group}})</small></h3>
{{range .Evidence}}<blockquote>{{.DocID}} [{{.Start}}, {{.End}}): {{.TextPreview}}</blockquote>
{{end}}{{end}}

<h2>Edges</h2>
<table>
<tr><th>From</th><th>To</th><th>Polarity</th><th>Confidence</th><th>Evidence</th></tr>
{{range .Graph.Edges}}
<tr>
<td>{{.FromVariableID}}</td>
<td>{{.ToVariableID}}</td>
<td>{{.Polarity}}</td>
<td>{{printf "%.2f" .Confidence}}</td>
<td>{{range .Evidence}}<blockquote>{{.DocID}} [{{.Start}}, {{.End}}): {{.TextPreview}}</blockquote>{{end}}</td>
</tr>
{{end}}
</table>

<h2>Loops</h2>
{{if .Loops}}
<table>
<tr><th>ID</th><th>Type</th><th>Path</th></tr>
{{range .Loops}}
<tr><td>{{.ID}}</td><td>{{.Type}}</td><td>{{range $i, $n := .NodeIDs}}{{if $i}} &rarr; {{end}}{{$n}}{{end}}</td></tr>
{{end}}
</table>
{{else}}
<p>No feedback loops were found.</p>
{{end}}
</body>
</html>
`))

func renderProvenance(result *cld.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := provenanceTmpl.Execute(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
