package cld

// Aggregate performs axial coding: it maps theme codes onto a smaller set of
// canonical variables and records the theme -> variable containment. Themes
// whose canonical name is not allow-listed are dropped; this trades recall
// for precision so the variable set does not explode with noise phrases.
func Aggregate(themes []Code, cfg Config) ([]Code, []Containment) {
	allowed := make(map[string]struct{})
	for canonical := range cfg.Synonyms {
		allowed[canonical] = struct{}{}
	}
	for _, canonical := range cfg.ThemeToVariable {
		allowed[canonical] = struct{}{}
	}
	for _, canonical := range cfg.CanonicalVariables {
		allowed[canonical] = struct{}{}
	}

	index := make(map[string]int)
	var variables []Code
	var containment []Containment

	for _, theme := range themes {
		canonical := theme.Label
		if mapped, ok := cfg.ThemeToVariable[theme.Label]; ok {
			canonical = mapped
		}
		if _, ok := allowed[canonical]; !ok {
			continue
		}

		id := "var:" + canonical
		if at, ok := index[id]; ok {
			variables[at].Evidence = append(variables[at].Evidence, theme.Evidence...)
		} else {
			index[id] = len(variables)
			variables = append(variables, Code{
				ID:       id,
				Label:    canonical,
				Type:     CodeVariable,
				Group:    cfg.groupFor(canonical),
				Evidence: append([]Span(nil), theme.Evidence...),
			})
		}

		containment = append(containment, Containment{
			ParentCodeID: id,
			ChildCodeID:  theme.ID,
			Relation:     ContainsRelation,
		})
	}

	return variables, containment
}
