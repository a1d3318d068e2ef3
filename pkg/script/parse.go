package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var stepPattern = regexp.MustCompile(`^([a-z_]+)(?:\((.*)\))?$`)

// ParseStep parses the text syntax used in scenario files:
//
//	limited(N)   unlimited   would_block   err(NAME)
//
// err(NAME) produces an *InjectedError named NAME.
func ParseStep(text string) (Step, error) {
	m := stepPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Step{}, fmt.Errorf("invalid step %q", text)
	}
	name, arg := m[1], m[2]
	hasArg := strings.Contains(text, "(")

	switch name {
	case "limited":
		if !hasArg {
			return Step{}, fmt.Errorf("step %q: limited requires a count", text)
		}
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return Step{}, fmt.Errorf("step %q: invalid count: %w", text, err)
		}
		if n < 0 {
			return Step{}, fmt.Errorf("step %q: count must be non-negative", text)
		}
		return Limited(n), nil
	case "unlimited":
		if hasArg {
			return Step{}, fmt.Errorf("step %q: unlimited takes no argument", text)
		}
		return Unlimited(), nil
	case "would_block":
		if hasArg {
			return Step{}, fmt.Errorf("step %q: would_block takes no argument", text)
		}
		return WouldBlock(), nil
	case "err":
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return Step{}, fmt.Errorf("step %q: err requires a name", text)
		}
		return Fail(&InjectedError{Name: arg}), nil
	default:
		return Step{}, fmt.Errorf("step %q: unknown kind %q", text, name)
	}
}

// ParseSteps parses every entry, reporting the index of the first failure.
func ParseSteps(texts []string) ([]Step, error) {
	return ParseStepField("steps", texts)
}

// ParseStepField is ParseSteps for a list stored under field; errors name
// the offending entry as field[i].
func ParseStepField(field string, texts []string) ([]Step, error) {
	steps := make([]Step, 0, len(texts))
	for i, text := range texts {
		step, err := ParseStep(text)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// ParsePolicy parses repeat_last, cycle, delegate, or strict. The empty
// string selects DelegateToInner.
func ParsePolicy(text string) (Policy, error) {
	switch text {
	case "", "delegate":
		return DelegateToInner, nil
	case "repeat_last":
		return RepeatLast, nil
	case "cycle":
		return Cycle, nil
	case "strict":
		return Strict, nil
	default:
		return DelegateToInner, fmt.Errorf("unknown policy %q", text)
	}
}
