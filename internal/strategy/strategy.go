package strategy

import (
	"fmt"
	"strings"
)

// Strategy pairs a vision prompt with a name. Each strategy biases the
// recognizer toward one visual cue class; the shared response parser in the
// recognizer package maps whatever comes back into the slot structure, so a
// strategy is pure configuration and adding one is a registry-only change.
type Strategy struct {
	Name   string
	Prompt string
}

// Strategy names, in default priority order. Comprehensive goes first since
// it has the broadest recall.
const (
	Comprehensive     = "comprehensive"
	BoxFocused        = "box_focused"
	LineFocused       = "line_focused"
	AnnotationFocused = "annotation_focused"
)

var registry = map[string]Strategy{
	Comprehensive:     {Name: Comprehensive, Prompt: comprehensivePrompt},
	BoxFocused:        {Name: BoxFocused, Prompt: boxFocusedPrompt},
	LineFocused:       {Name: LineFocused, Prompt: lineFocusedPrompt},
	AnnotationFocused: {Name: AnnotationFocused, Prompt: annotationFocusedPrompt},
}

// DefaultOrder returns the default strategy priority order.
func DefaultOrder() []string {
	return []string{Comprehensive, BoxFocused, LineFocused, AnnotationFocused}
}

// ByName looks up a registered strategy.
func ByName(name string) (Strategy, bool) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Resolve maps an ordered list of names to strategies, rejecting unknown or
// duplicate entries. An empty list resolves to the default order.
func Resolve(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		names = DefaultOrder()
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, ok := ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown strategy: %q", name)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate strategy: %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}
