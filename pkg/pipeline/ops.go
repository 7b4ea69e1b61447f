package pipeline

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marbleworks/rxkit/pkg/rx"
)

// OpSpec names one operator of the chain plus its argument. Arguments use
// simple string forms: counts for take/skip/buffer, frame counts for the
// timed operators, a glob or regular expression for the filters.
type OpSpec struct {
	Name string `json:"name"`
	Arg  string `json:"arg,omitempty"`
}

// stage transforms one link of the operator chain. frame is the marble
// frame duration of the run, used by the timed operators.
type stage func(o rx.Observable[string], frame time.Duration) rx.Observable[string]

// opDef describes one supported operator: whether it takes an argument and
// how to turn a spec into a pipeline stage.
type opDef struct {
	needsArg bool
	argHint  string
	build    func(spec OpSpec) (stage, error)
}

// ops is the operator registry. Argument validation happens in the build
// functions, so ValidateAndSetDefaults surfaces bad specs before a run.
var ops = map[string]opDef{
	"take": {needsArg: true, argHint: "count", build: func(spec OpSpec) (stage, error) {
		n, err := countArg(spec)
		if err != nil {
			return nil, err
		}
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return o.Take(n)
		}, nil
	}},
	"skip": {needsArg: true, argHint: "count", build: func(spec OpSpec) (stage, error) {
		n, err := countArg(spec)
		if err != nil {
			return nil, err
		}
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return o.Skip(n)
		}, nil
	}},
	"first": {build: func(OpSpec) (stage, error) {
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return o.First()
		}, nil
	}},
	"last": {build: func(OpSpec) (stage, error) {
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return o.Last()
		}, nil
	}},
	"distinct": {build: func(OpSpec) (stage, error) {
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return rx.Distinct(o)
		}, nil
	}},
	"dedupe": {build: func(OpSpec) (stage, error) {
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return rx.DistinctUntilChanged(o)
		}, nil
	}},
	"upper": {build: func(OpSpec) (stage, error) {
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return rx.Map(o, strings.ToUpper)
		}, nil
	}},
	"lower": {build: func(OpSpec) (stage, error) {
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return rx.Map(o, strings.ToLower)
		}, nil
	}},
	"filter": {needsArg: true, argHint: "glob", build: func(spec OpSpec) (stage, error) {
		pattern := spec.Arg
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("op %q: bad glob %q: %w", spec.Name, pattern, err)
		}
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return o.Filter(func(v string) bool {
				ok, _ := path.Match(pattern, v)
				return ok
			})
		}, nil
	}},
	"match": {needsArg: true, argHint: "regexp", build: func(spec OpSpec) (stage, error) {
		re, err := regexp.Compile(spec.Arg)
		if err != nil {
			return nil, fmt.Errorf("op %q: bad regexp %q: %w", spec.Name, spec.Arg, err)
		}
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return o.Filter(re.MatchString)
		}, nil
	}},
	"scan-concat": {build: func(OpSpec) (stage, error) {
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return rx.Scan(o, "", func(acc, v string) string { return acc + v })
		}, nil
	}},
	"buffer": {needsArg: true, argHint: "count", build: func(spec OpSpec) (stage, error) {
		n, err := countArg(spec)
		if err != nil {
			return nil, err
		}
		return func(o rx.Observable[string], _ time.Duration) rx.Observable[string] {
			return rx.Map(rx.Buffer(o, n), func(batch []string) string {
				return strings.Join(batch, "")
			})
		}, nil
	}},
	"delay": {needsArg: true, argHint: "frames", build: func(spec OpSpec) (stage, error) {
		n, err := countArg(spec)
		if err != nil {
			return nil, err
		}
		return func(o rx.Observable[string], frame time.Duration) rx.Observable[string] {
			return o.Delay(time.Duration(n) * frame)
		}, nil
	}},
	"debounce": {needsArg: true, argHint: "frames", build: func(spec OpSpec) (stage, error) {
		n, err := countArg(spec)
		if err != nil {
			return nil, err
		}
		return func(o rx.Observable[string], frame time.Duration) rx.Observable[string] {
			return o.Debounce(time.Duration(n) * frame)
		}, nil
	}},
}

// ValidOps is the set of supported operator names.
var ValidOps = func() map[string]bool {
	m := make(map[string]bool, len(ops))
	for name := range ops {
		m[name] = true
	}
	return m
}()

// OpNames returns the supported operator names in sorted order with their
// argument hints, for help output.
func OpNames() []string {
	names := make([]string, 0, len(ops))
	for name, def := range ops {
		if def.needsArg {
			names = append(names, name+" <"+def.argHint+">")
		} else {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks that the spec names a known operator and carries a
// well-formed argument.
func (s OpSpec) Validate() error {
	def, ok := ops[s.Name]
	if !ok {
		return fmt.Errorf("unknown op: %q", s.Name)
	}
	if def.needsArg && s.Arg == "" {
		return fmt.Errorf("op %q requires a %s argument", s.Name, def.argHint)
	}
	if !def.needsArg && s.Arg != "" {
		return fmt.Errorf("op %q takes no argument", s.Name)
	}
	// Building validates the argument form; the stage is discarded.
	_, err := def.build(s)
	return err
}

// String renders the spec the way the CLI accepts it.
func (s OpSpec) String() string {
	if s.Arg == "" {
		return s.Name
	}
	return s.Name + ":" + s.Arg
}

// ParseOpSpec reads the CLI form "name" or "name:arg".
func ParseOpSpec(raw string) (OpSpec, error) {
	name, arg, _ := strings.Cut(raw, ":")
	spec := OpSpec{Name: strings.TrimSpace(name), Arg: strings.TrimSpace(arg)}
	if err := spec.Validate(); err != nil {
		return OpSpec{}, err
	}
	return spec, nil
}

func (s OpSpec) buildStage() (stage, error) {
	def, ok := ops[s.Name]
	if !ok {
		return nil, fmt.Errorf("unknown op: %q", s.Name)
	}
	return def.build(s)
}

func countArg(spec OpSpec) (int, error) {
	n, err := strconv.Atoi(spec.Arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("op %q: argument must be a non-negative count, got %q", spec.Name, spec.Arg)
	}
	return n, nil
}
