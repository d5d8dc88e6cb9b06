// Package dispatch parses action sequences from their text form and executes
// them against a display input backend.
//
// The text form is a list of entries. Each entry holds one or more
// whitespace-separated ops:
//
//	c:x,y            click at x,y
//	dd:x,y           move to x,y and press
//	m:x,y            move to x,y
//	du:x,y           move to x,y and release
//	w:ms             wait
//	sd:fx,fy,tx,ty   slow drag from fx,fy to tx,ty
//
// An op may end in *N to repeat it, and a standalone *N token at the end of
// an entry repeats the whole entry.
package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/berth-automation/berth/internal/domain"
)

// Kind identifies a primitive op
type Kind int

const (
	KindClick Kind = iota
	KindPress
	KindMove
	KindRelease
	KindWait
)

var kindPrefix = map[Kind]string{
	KindClick:   "c",
	KindPress:   "dd",
	KindMove:    "m",
	KindRelease: "du",
	KindWait:    "w",
}

func (k Kind) String() string {
	switch k {
	case KindClick:
		return "click"
	case KindPress:
		return "press"
	case KindMove:
		return "move"
	case KindRelease:
		return "release"
	case KindWait:
		return "wait"
	default:
		return "unknown"
	}
}

// Op is one primitive input operation
type Op struct {
	Kind Kind
	At   domain.Point
	Wait time.Duration
}

// Click moves to (x, y) and clicks the left button
func Click(x, y int) Op { return Op{Kind: KindClick, At: domain.Point{X: x, Y: y}} }

// PressAndHold moves to (x, y) and presses the left button without releasing it
func PressAndHold(x, y int) Op { return Op{Kind: KindPress, At: domain.Point{X: x, Y: y}} }

// MoveTo moves the pointer to (x, y)
func MoveTo(x, y int) Op { return Op{Kind: KindMove, At: domain.Point{X: x, Y: y}} }

// Release moves to (x, y) and releases the left button
func Release(x, y int) Op { return Op{Kind: KindRelease, At: domain.Point{X: x, Y: y}} }

// Wait pauses for ms milliseconds
func Wait(ms int) Op { return Op{Kind: KindWait, Wait: time.Duration(ms) * time.Millisecond} }

// String renders the op in its text form
func (o Op) String() string {
	if o.Kind == KindWait {
		return fmt.Sprintf("w:%d", o.Wait.Milliseconds())
	}
	return fmt.Sprintf("%s:%d,%d", kindPrefix[o.Kind], o.At.X, o.At.Y)
}

// Sequence is an ordered list of ops executed as one unit
type Sequence []Op

// String renders the sequence as space-separated ops
func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, op := range s {
		parts[i] = op.String()
	}
	return strings.Join(parts, " ")
}

// Duration sums the waits in the sequence
func (s Sequence) Duration() time.Duration {
	var d time.Duration
	for _, op := range s {
		if op.Kind == KindWait {
			d += op.Wait
		}
	}
	return d
}

// ParseOptions controls macro expansion
type ParseOptions struct {
	DragSteps int
	DragHold  time.Duration
	DragStep  time.Duration
}

// DefaultParseOptions returns the slow-drag pacing used when none is configured
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		DragSteps: 16,
		DragHold:  180 * time.Millisecond,
		DragStep:  45 * time.Millisecond,
	}
}

// SlowDrag presses at from, waits, moves to to in steps interpolated moves
// each followed by a wait, then releases at to
func SlowDrag(from, to domain.Point, opts ParseOptions) Sequence {
	steps := opts.DragSteps
	if steps < 1 {
		steps = 1
	}

	seq := Sequence{
		PressAndHold(from.X, from.Y),
		{Kind: KindWait, Wait: opts.DragHold},
	}
	for i := 1; i <= steps; i++ {
		x := from.X + (to.X-from.X)*i/steps
		y := from.Y + (to.Y-from.Y)*i/steps
		seq = append(seq, MoveTo(x, y), Op{Kind: KindWait, Wait: opts.DragStep})
	}
	return append(seq, Release(to.X, to.Y))
}

// ParseSequence parses config entries into one flat sequence
func ParseSequence(entries []string, opts ParseOptions) (Sequence, error) {
	var seq Sequence
	for i, entry := range entries {
		ops, err := ParseEntry(entry, opts)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, entry, err)
		}
		seq = append(seq, ops...)
	}
	return seq, nil
}

// ParseEntry parses a single entry, honoring a trailing whole-entry repeat
func ParseEntry(entry string, opts ParseOptions) (Sequence, error) {
	tokens := strings.Fields(entry)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty entry")
	}

	repeat := 1
	if last := tokens[len(tokens)-1]; strings.HasPrefix(last, "*") {
		n, err := parseRepeat(last[1:])
		if err != nil {
			return nil, err
		}
		repeat = n
		tokens = tokens[:len(tokens)-1]
		if len(tokens) == 0 {
			return nil, fmt.Errorf("repeat without ops")
		}
	}

	var once Sequence
	for _, tok := range tokens {
		ops, err := parseToken(tok, opts)
		if err != nil {
			return nil, err
		}
		once = append(once, ops...)
	}

	seq := make(Sequence, 0, len(once)*repeat)
	for range repeat {
		seq = append(seq, once...)
	}
	return seq, nil
}

func parseRepeat(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid repeat count %q", s)
	}
	return n, nil
}

func parseToken(tok string, opts ParseOptions) (Sequence, error) {
	repeat := 1
	if i := strings.LastIndexByte(tok, '*'); i > 0 {
		n, err := parseRepeat(tok[i+1:])
		if err != nil {
			return nil, err
		}
		repeat = n
		tok = tok[:i]
	}

	prefix, args, ok := strings.Cut(tok, ":")
	if !ok {
		return nil, fmt.Errorf("op %q: missing ':'", tok)
	}

	var once Sequence
	switch prefix {
	case "c", "dd", "m", "du":
		p, err := parsePoint(args)
		if err != nil {
			return nil, fmt.Errorf("op %q: %w", tok, err)
		}
		switch prefix {
		case "c":
			once = Sequence{Click(p.X, p.Y)}
		case "dd":
			once = Sequence{PressAndHold(p.X, p.Y)}
		case "m":
			once = Sequence{MoveTo(p.X, p.Y)}
		default:
			once = Sequence{Release(p.X, p.Y)}
		}
	case "w":
		ms, err := strconv.Atoi(args)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("op %q: invalid wait", tok)
		}
		once = Sequence{Wait(ms)}
	case "sd":
		nums, err := parseInts(args, 4)
		if err != nil {
			return nil, fmt.Errorf("op %q: %w", tok, err)
		}
		once = SlowDrag(
			domain.Point{X: nums[0], Y: nums[1]},
			domain.Point{X: nums[2], Y: nums[3]},
			opts,
		)
	default:
		return nil, fmt.Errorf("op %q: unknown op %q", tok, prefix)
	}

	seq := make(Sequence, 0, len(once)*repeat)
	for range repeat {
		seq = append(seq, once...)
	}
	return seq, nil
}

func parsePoint(s string) (domain.Point, error) {
	nums, err := parseInts(s, 2)
	if err != nil {
		return domain.Point{}, err
	}
	return domain.Point{X: nums[0], Y: nums[1]}, nil
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated integers, got %q", n, s)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", p)
		}
		out[i] = v
	}
	return out, nil
}
