// Package model loads learned-model artifacts and evaluates them.
//
// An artifact is a small linear model stored as YAML or JSON. Each head
// is either a classifier (one weight row per class, softmax over the
// logits) or a regressor (a single weight row, raw output). Artifacts
// carry a semver format_version; only major version v1 is understood.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/mod/semver"
)

// Kind is the decision an artifact serves.
type Kind string

const (
	KindSelection Kind = "selection"
	KindRisk      Kind = "risk"
)

// Input is the feature shape an artifact consumes.
type Input string

const (
	InputSelection  Input = "selection"
	InputTransition Input = "transition"
	InputRisk       Input = "risk"
)

// Size returns the vector length for the input shape, or 0 if unknown.
func (i Input) Size() int {
	switch i {
	case InputSelection:
		return 10
	case InputTransition:
		return 4
	case InputRisk:
		return 7
	default:
		return 0
	}
}

// Scale is the unit a classifier reports probabilities in.
type Scale string

const (
	ScaleFraction Scale = "fraction"
	ScalePercent  Scale = "percent"
)

// Head names expected per kind.
const (
	HeadDomain     = "domain"
	HeadDifficulty = "difficulty"
	HeadRisk       = "risk"
)

const supportedMajor = "v1"

// ErrInvalid is wrapped by every artifact validation failure.
var ErrInvalid = errors.New("invalid model artifact")

// Head is one output of a linear model.
type Head struct {
	Name    string      `json:"name" yaml:"name"`
	Classes []string    `json:"classes,omitempty" yaml:"classes,omitempty"`
	Weights [][]float64 `json:"weights" yaml:"weights"`
	Bias    []float64   `json:"bias" yaml:"bias"`
}

// Regression reports whether the head emits a raw value instead of a class.
func (h Head) Regression() bool { return len(h.Classes) == 0 }

// Artifact is a decoded model file.
type Artifact struct {
	FormatVersion    string `json:"format_version" yaml:"format_version"`
	Kind             Kind   `json:"kind" yaml:"kind"`
	Input            Input  `json:"input" yaml:"input"`
	ProbabilityScale Scale  `json:"probability_scale,omitempty" yaml:"probability_scale,omitempty"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	Heads            []Head `json:"heads" yaml:"heads"`
}

// Head returns the named head.
func (a *Artifact) Head(name string) (Head, bool) {
	for _, h := range a.Heads {
		if h.Name == name {
			return h, true
		}
	}
	return Head{}, false
}

// Scale returns the probability scale, defaulting to fraction.
func (a *Artifact) Scale() Scale {
	if a.ProbabilityScale == "" {
		return ScaleFraction
	}
	return a.ProbabilityScale
}

// Validate checks version, kind/input compatibility and matrix shapes.
func (a *Artifact) Validate() error {
	if err := checkVersion(a.FormatVersion); err != nil {
		return err
	}

	switch a.Kind {
	case KindSelection:
		if a.Input != InputSelection && a.Input != InputTransition {
			return invalidf("kind %q cannot take input %q", a.Kind, a.Input)
		}
	case KindRisk:
		if a.Input != InputRisk {
			return invalidf("kind %q cannot take input %q", a.Kind, a.Input)
		}
	default:
		return invalidf("unknown kind %q", a.Kind)
	}

	switch a.Scale() {
	case ScaleFraction, ScalePercent:
	default:
		return invalidf("unknown probability_scale %q", a.ProbabilityScale)
	}

	if len(a.Heads) == 0 {
		return invalidf("no heads")
	}
	seen := make(map[string]bool, len(a.Heads))
	for _, h := range a.Heads {
		if seen[h.Name] {
			return invalidf("duplicate head %q", h.Name)
		}
		seen[h.Name] = true
		if err := h.validate(a.Input.Size()); err != nil {
			return err
		}
	}

	var required []string
	if a.Kind == KindSelection {
		required = []string{HeadDomain, HeadDifficulty}
	} else {
		required = []string{HeadRisk}
	}
	for _, name := range required {
		if !seen[name] {
			return invalidf("kind %q requires head %q", a.Kind, name)
		}
	}
	if h, _ := a.Head(HeadRisk); a.Kind == KindRisk && h.Regression() {
		return invalidf("head %q must be a classifier", HeadRisk)
	}
	return nil
}

func (h Head) validate(features int) error {
	if h.Name == "" {
		return invalidf("head with empty name")
	}
	rows := len(h.Classes)
	if rows == 0 {
		rows = 1
	}
	if len(h.Weights) != rows {
		return invalidf("head %q: %d weight rows, want %d", h.Name, len(h.Weights), rows)
	}
	if len(h.Bias) != rows {
		return invalidf("head %q: %d bias values, want %d", h.Name, len(h.Bias), rows)
	}
	for i, row := range h.Weights {
		if len(row) != features {
			return invalidf("head %q row %d: %d weights, want %d", h.Name, i, len(row), features)
		}
		for _, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return invalidf("head %q row %d: non-finite weight", h.Name, i)
			}
		}
	}
	for _, b := range h.Bias {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return invalidf("head %q: non-finite bias", h.Name)
		}
	}
	classes := make(map[string]bool, len(h.Classes))
	for _, c := range h.Classes {
		if c == "" || classes[c] {
			return invalidf("head %q: empty or duplicate class %q", h.Name, c)
		}
		classes[c] = true
	}
	return nil
}

func checkVersion(v string) error {
	if v == "" {
		return invalidf("missing format_version")
	}
	canonical := v
	if !strings.HasPrefix(canonical, "v") {
		canonical = "v" + canonical
	}
	if !semver.IsValid(canonical) {
		return invalidf("format_version %q is not semver", v)
	}
	if semver.Major(canonical) != supportedMajor {
		return invalidf("format_version %q unsupported, need %s.x", v, supportedMajor)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
