package cld

import (
	"testing"
)

func TestAggregate(t *testing.T) {
	cfg := testConfig(t, nil)

	span := Span{DocID: "d", Start: 0, End: 10, TextPreview: "some text"}
	themes := []Code{
		{ID: "theme:performance", Label: "performance", Type: CodeTheme, Group: GroupOther, Evidence: []Span{span}},
		{ID: "theme:poor performance", Label: "poor performance", Type: CodeTheme, Group: GroupOther, Evidence: []Span{span}},
		{ID: "theme:random noise", Label: "random noise", Type: CodeTheme, Group: GroupOther, Evidence: []Span{span}},
	}

	variables, containment := Aggregate(themes, cfg)

	if len(variables) != 2 {
		t.Fatalf("expected 2 variables, got %d: %v", len(variables), themeLabels(variables))
	}
	if variables[0].ID != "var:performance" || variables[1].ID != "var:underperformance" {
		t.Errorf("unexpected variable ids: %q, %q", variables[0].ID, variables[1].ID)
	}
	for _, v := range variables {
		if v.Type != CodeVariable {
			t.Errorf("variable %q has type %q", v.ID, v.Type)
		}
		if len(v.Evidence) == 0 {
			t.Errorf("variable %q has no evidence", v.ID)
		}
	}

	if len(containment) != 2 {
		t.Fatalf("expected 2 containment records, got %d", len(containment))
	}
	for _, c := range containment {
		if c.Relation != ContainsRelation {
			t.Errorf("unexpected relation %q", c.Relation)
		}
	}
	if containment[1].ParentCodeID != "var:underperformance" || containment[1].ChildCodeID != "theme:poor performance" {
		t.Errorf("unexpected containment %+v", containment[1])
	}
}

func TestAggregateMergesThemesIntoOneVariable(t *testing.T) {
	cfg := testConfig(t, nil)

	spanA := Span{DocID: "d", Start: 0, End: 5, TextPreview: "first"}
	spanB := Span{DocID: "d", Start: 6, End: 12, TextPreview: "second"}
	themes := []Code{
		{ID: "theme:underperformance", Label: "underperformance", Type: CodeTheme, Evidence: []Span{spanA}},
		{ID: "theme:poor performance", Label: "poor performance", Type: CodeTheme, Evidence: []Span{spanB}},
	}

	variables, containment := Aggregate(themes, cfg)

	if len(variables) != 1 {
		t.Fatalf("expected 1 variable, got %d", len(variables))
	}
	if variables[0].ID != "var:underperformance" {
		t.Errorf("unexpected variable id %q", variables[0].ID)
	}
	if len(variables[0].Evidence) != 2 {
		t.Errorf("expected merged evidence from both themes, got %d spans", len(variables[0].Evidence))
	}
	if len(containment) != 2 {
		t.Errorf("expected one containment per contributing theme, got %d", len(containment))
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	cfg := testConfig(t, nil)
	variables, containment := Aggregate(nil, cfg)
	if len(variables) != 0 || len(containment) != 0 {
		t.Errorf("expected empty result, got %d variables, %d containment", len(variables), len(containment))
	}
}
