// Package harness generates and drives random editing sessions against the
// validator. Scripts are well-formed by construction (positions always
// resolve inside the text they edit), so any error out of a run is a real
// finding about the engine or the validator, not noise.
package harness

import (
	"fmt"
	"math/rand"
	"strings"

	"syncoracle/internal/patch"
)

// utf16RuneLen mirrors utf16.RuneLen from Go 1.23, which is unavailable on
// older toolchains.
func utf16RuneLen(r rune) int {
	switch {
	case 0 <= r && r < 0xd800, 0xe000 <= r && r < 0x10000:
		return 1
	case 0x10000 <= r && r <= '\U0010FFFF':
		return 2
	default:
		return -1
	}
}

type StepKind string

const (
	StepOpen   StepKind = "open"
	StepChange StepKind = "change"
	StepSave   StepKind = "save"
	StepClose  StepKind = "close"
)

// Step is one lifecycle event in a script. Text is the initial content for
// open steps; Changes is the operation list for change steps.
type Step struct {
	Kind    StepKind
	URI     string
	Text    string
	Changes []patch.Change
}

type Script struct {
	Seed  int64
	Steps []Step
}

// alphabet mixes single-byte, multi-byte and astral runes with newlines and
// carriage returns, so generated edits exercise the UTF-16 offset math.
var alphabet = []rune("abcdefgh xyz\tä ö é € 漢字 𝕊 🙂\n\n\n\r")

type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Script produces one session: each document is opened, edited through the
// requested number of change events (one to three operations each, mixing
// splices and whole-document replaces), occasionally saved, then closed.
func (g *Generator) Script(docs int, changes int) Script {
	var steps []Step
	for d := 0; d < docs; d++ {
		uri := fmt.Sprintf("file:///fuzz/doc-%d.txt", d)
		content := g.text(60)
		steps = append(steps, Step{Kind: StepOpen, URI: uri, Text: content})

		for c := 0; c < changes; c++ {
			count := 1 + g.rnd.Intn(3)
			ops := make([]patch.Change, 0, count)
			for o := 0; o < count; o++ {
				op := g.change(content)
				next, err := patch.Apply(content, []patch.Change{op})
				if err != nil {
					// The generator only emits in-bounds operations.
					panic(fmt.Sprintf("generator produced invalid change: %v", err))
				}
				content = next
				ops = append(ops, op)
			}
			steps = append(steps, Step{Kind: StepChange, URI: uri, Changes: ops})

			if g.rnd.Intn(4) == 0 {
				steps = append(steps, Step{Kind: StepSave, URI: uri})
			}
		}

		steps = append(steps, Step{Kind: StepClose, URI: uri})
	}
	return Script{Steps: steps}
}

func (g *Generator) change(content string) patch.Change {
	if g.rnd.Intn(5) == 0 {
		return patch.Change{Text: g.text(60)}
	}
	r := g.spliceRange(content)
	return patch.Change{Range: &r, Text: g.text(12)}
}

func (g *Generator) text(maxRunes int) string {
	n := g.rnd.Intn(maxRunes + 1)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(alphabet[g.rnd.Intn(len(alphabet))])
	}
	return b.String()
}

// spliceRange picks two valid positions in content and orders them.
func (g *Generator) spliceRange(content string) patch.Range {
	a := g.position(content)
	b := g.position(content)
	if b.Line < a.Line || (b.Line == a.Line && b.Character < a.Character) {
		a, b = b, a
	}
	return patch.Range{Start: a, End: b}
}

// position picks a random line and a random UTF-16 offset that sits on a
// rune boundary within it.
func (g *Generator) position(content string) patch.Position {
	lines := strings.Split(content, "\n")
	line := g.rnd.Intn(len(lines))

	boundaries := []uint32{0}
	units := uint32(0)
	for _, r := range lines[line] {
		units += uint32(utf16RuneLen(r))
		boundaries = append(boundaries, units)
	}
	return patch.Position{
		Line:      uint32(line),
		Character: boundaries[g.rnd.Intn(len(boundaries))],
	}
}
