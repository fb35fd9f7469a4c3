package cld

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// CueLexicon holds the phrase lists used to detect causal language and its
// polarity. Generic cues default to positive polarity.
type CueLexicon struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Generic  []string `yaml:"generic"`
}

// GroupRule assigns a stakeholder group to labels matching Pattern. Rules
// are evaluated in order; the first match wins.
type GroupRule struct {
	Pattern string `yaml:"pattern"`
	Group   Group  `yaml:"group"`

	re *regexp.Regexp
}

// ConfidenceWeights tunes edge confidence scoring and the per-sentence edge
// cap of the pairwise fallback.
type ConfidenceWeights struct {
	Base                float64 `yaml:"base"`
	CueWeight           float64 `yaml:"cue_weight"`
	PositiveBonus       float64 `yaml:"positive_bonus"`
	NegativeBonus       float64 `yaml:"negative_bonus"`
	MaxPerSentenceEdges int     `yaml:"max_per_sentence_edges"`
}

// Config is the full pipeline configuration. It is immutable per run: Merge
// produces a new value and never mutates the receiver or shared defaults.
type Config struct {
	Cues               CueLexicon
	GroupRules         []GroupRule
	StopWords          []string
	ThemeMinLength     int
	ThemeMaxWords      int
	ThemeToVariable    map[string]string
	Synonyms           map[string][]string
	CanonicalVariables []string
	PruneThreshold     float64
	Confidence         ConfidenceWeights
	MaxLoopDepth       int

	stopWordSet map[string]struct{}
	allCues     []string
}

// Overrides is a partial configuration merged over defaults. Nil fields keep
// the default; map fields merge key-by-key with override entries winning.
type Overrides struct {
	Cues               *CueLexicon         `yaml:"cues,omitempty"`
	GroupRules         []GroupRule         `yaml:"group_rules,omitempty"`
	StopWords          []string            `yaml:"stop_words,omitempty"`
	ThemeMinLength     *int                `yaml:"theme_min_length,omitempty"`
	ThemeMaxWords      *int                `yaml:"theme_max_words,omitempty"`
	ThemeToVariable    map[string]string   `yaml:"theme_to_variable,omitempty"`
	Synonyms           map[string][]string `yaml:"synonyms,omitempty"`
	CanonicalVariables []string            `yaml:"canonical_variables,omitempty"`
	PruneThreshold     *float64            `yaml:"prune_threshold,omitempty"`
	Confidence         *ConfidenceWeights  `yaml:"confidence,omitempty"`
	MaxLoopDepth       *int                `yaml:"max_loop_depth,omitempty"`
}

// DefaultConfig returns the built-in configuration. Callers must run Merge
// (even with nil overrides) before use so derived indexes are built.
func DefaultConfig() Config {
	return Config{
		Cues: CueLexicon{
			Positive: []string{
				"leads to", "lead to", "led to", "increases", "increase", "improves",
				"boosts", "drives", "raises", "enhances", "strengthens",
				"encourages", "promotes", "contributes to", "results in",
			},
			Negative: []string{
				"reduces", "reduce", "lowers", "decreases", "diminishes",
				"undermines", "limits", "weakens", "inhibits", "discourages",
				"prevents", "suppresses",
			},
			Generic: []string{
				"causes", "caused by", "triggers", "affects", "impacts",
				"influences", "because of", "due to", "depends on",
			},
		},
		GroupRules: []GroupRule{
			{Pattern: `polic|regulat|government|legislat|compliance`, Group: GroupPolicy},
			{Pattern: `local authorit|council|municipal`, Group: GroupLocalAuthority},
			{Pattern: `industr|market|compan|business|operator|vendor|provider`, Group: GroupIndustry},
			{Pattern: `user|rider|resident|citizen|public|adoption|communit`, Group: GroupUsers},
		},
		StopWords: []string{
			"the", "a", "an", "and", "or", "but", "if", "then", "is", "are",
			"was", "were", "be", "been", "being", "to", "of", "in", "on",
			"for", "with", "as", "at", "by", "from", "that", "this", "these",
			"those", "it", "its", "we", "they", "them", "he", "she", "you",
			"i", "our", "their", "your", "will", "would", "can", "could",
			"should", "may", "might", "must", "more", "less", "very", "so",
			"not", "no", "do", "does", "did", "have", "has", "had", "there",
			"here", "when", "what", "which", "who", "how", "why", "also",
			"into", "over", "under", "about", "after", "before", "between",
			"during", "through", "than", "too", "such", "other", "some",
			"any", "each", "all", "both", "few", "most", "own", "same",
		},
		ThemeMinLength: 4,
		ThemeMaxWords:  3,
		ThemeToVariable: map[string]string{
			"under performance":    "underperformance",
			"poor performance":     "underperformance",
			"underperforming":      "underperformance",
			"performance levels":   "performance",
			"system performance":   "performance",
			"resource allocations": "resource allocation",
			"allocating resources": "resource allocation",
			"resourcing":           "resource allocation",
			"scrap":                "scrapping",
			"scrapped":             "scrapping",
		},
		Synonyms: map[string][]string{
			"performance":         {"performance levels", "system performance"},
			"underperformance":    {"under performance", "poor performance", "underperforming"},
			"resource allocation": {"resource allocations", "resources", "resourcing"},
			"scrapping":           {"scrap", "scrapped"},
			"investment":          {"investments", "funding"},
			"regulation":          {"regulations", "regulatory pressure"},
			"user adoption":       {"adoption", "uptake"},
		},
		CanonicalVariables: []string{
			"performance", "underperformance", "resource allocation", "scrapping",
		},
		PruneThreshold: 0.25,
		Confidence: ConfidenceWeights{
			Base:                0.3,
			CueWeight:           0.15,
			PositiveBonus:       0.1,
			NegativeBonus:       0.15,
			MaxPerSentenceEdges: 4,
		},
		MaxLoopDepth: 6,
	}
}

// Merge deep-merges overrides into the receiver and returns a new, compiled
// Config. Map fields merge key-by-key (override entries win), list fields
// replace wholesale when set, and scalar fields take the override if
// present. Invalid group-rule patterns are reported here, never during
// pipeline execution.
func (c Config) Merge(o *Overrides) (Config, error) {
	merged := c

	merged.ThemeToVariable = make(map[string]string, len(c.ThemeToVariable))
	for k, v := range c.ThemeToVariable {
		merged.ThemeToVariable[k] = v
	}
	merged.Synonyms = make(map[string][]string, len(c.Synonyms))
	for k, v := range c.Synonyms {
		merged.Synonyms[k] = append([]string(nil), v...)
	}
	merged.GroupRules = append([]GroupRule(nil), c.GroupRules...)
	merged.StopWords = append([]string(nil), c.StopWords...)
	merged.CanonicalVariables = append([]string(nil), c.CanonicalVariables...)

	if o != nil {
		if o.Cues != nil {
			if o.Cues.Positive != nil {
				merged.Cues.Positive = append([]string(nil), o.Cues.Positive...)
			}
			if o.Cues.Negative != nil {
				merged.Cues.Negative = append([]string(nil), o.Cues.Negative...)
			}
			if o.Cues.Generic != nil {
				merged.Cues.Generic = append([]string(nil), o.Cues.Generic...)
			}
		}
		if o.GroupRules != nil {
			merged.GroupRules = append([]GroupRule(nil), o.GroupRules...)
		}
		if o.StopWords != nil {
			merged.StopWords = append([]string(nil), o.StopWords...)
		}
		if o.ThemeMinLength != nil {
			merged.ThemeMinLength = *o.ThemeMinLength
		}
		if o.ThemeMaxWords != nil {
			merged.ThemeMaxWords = *o.ThemeMaxWords
		}
		for k, v := range o.ThemeToVariable {
			merged.ThemeToVariable[k] = v
		}
		for k, v := range o.Synonyms {
			merged.Synonyms[k] = append([]string(nil), v...)
		}
		for _, v := range o.CanonicalVariables {
			found := false
			for _, existing := range merged.CanonicalVariables {
				if existing == v {
					found = true
					break
				}
			}
			if !found {
				merged.CanonicalVariables = append(merged.CanonicalVariables, v)
			}
		}
		if o.PruneThreshold != nil {
			merged.PruneThreshold = *o.PruneThreshold
		}
		if o.Confidence != nil {
			merged.Confidence = *o.Confidence
		}
		if o.MaxLoopDepth != nil {
			merged.MaxLoopDepth = *o.MaxLoopDepth
		}
	}

	if err := merged.compile(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

func (c *Config) compile() error {
	if c.ThemeMaxWords < 1 {
		return fmt.Errorf("theme_max_words must be >= 1, got %d", c.ThemeMaxWords)
	}
	if c.PruneThreshold < 0 || c.PruneThreshold > 1 {
		return fmt.Errorf("prune_threshold must be within [0,1], got %g", c.PruneThreshold)
	}
	if c.MaxLoopDepth < 1 {
		return fmt.Errorf("max_loop_depth must be >= 1, got %d", c.MaxLoopDepth)
	}

	for i := range c.GroupRules {
		re, err := regexp.Compile(c.GroupRules[i].Pattern)
		if err != nil {
			return fmt.Errorf("invalid group rule pattern %q: %w", c.GroupRules[i].Pattern, err)
		}
		c.GroupRules[i].re = re
	}

	c.stopWordSet = make(map[string]struct{}, len(c.StopWords))
	for _, w := range c.StopWords {
		c.stopWordSet[w] = struct{}{}
	}

	seen := make(map[string]struct{})
	c.allCues = nil
	for _, list := range [][]string{c.Cues.Negative, c.Cues.Positive, c.Cues.Generic} {
		for _, cue := range list {
			if _, ok := seen[cue]; ok {
				continue
			}
			seen[cue] = struct{}{}
			c.allCues = append(c.allCues, cue)
		}
	}
	sort.Strings(c.allCues)

	return nil
}

// groupFor returns the group of the first rule matching label, or GroupOther.
func (c *Config) groupFor(label string) Group {
	for i := range c.GroupRules {
		if c.GroupRules[i].re != nil && c.GroupRules[i].re.MatchString(label) {
			return c.GroupRules[i].Group
		}
	}
	return GroupOther
}

func (c *Config) isStopWord(token string) bool {
	_, ok := c.stopWordSet[token]
	return ok
}

// LoadOverrides reads a YAML overrides file. A missing path is not an error
// here; callers decide whether the file is required.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config overrides: %w", err)
	}
	o := new(Overrides)
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("failed to parse config overrides: %w", err)
	}
	return o, nil
}
