package layout

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/topoview/pkg/topology"
)

func sized(prefix string, n int) []topology.Node {
	out := make([]topology.Node, n)
	for i := range out {
		out[i] = topology.Node{ID: fmt.Sprintf("%s%d", prefix, i)}
	}
	return out
}

// TestLayoutInvariants checks the column and stacking rules over random
// collection sizes.
func TestLayoutInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	size := gen.IntRange(0, 12)

	properties.Property("every node gets exactly one position", prop.ForAll(
		func(a, b, c, d int) bool {
			doc := document(sized("s", a), sized("w", b), sized("t", c), sized("b", d))
			return len(Compute(doc)) == a+b+c+d
		},
		size, size, size, size,
	))

	properties.Property("x depends only on category", prop.ForAll(
		func(a, b, c, d int) bool {
			doc := document(sized("s", a), sized("w", b), sized("t", c), sized("b", d))
			pos := Compute(doc)
			for _, cat := range topology.Categories() {
				for _, n := range doc.Collection(cat) {
					if pos[n.ID].X != Column(cat) {
						return false
					}
				}
			}
			return true
		},
		size, size, size, size,
	))

	properties.Property("columns stack downward in input order", prop.ForAll(
		func(a, b, c, d int) bool {
			doc := document(sized("s", a), sized("w", b), sized("t", c), sized("b", d))
			pos := Compute(doc)
			for _, cat := range topology.Categories() {
				nodes := doc.Collection(cat)
				for i := 1; i < len(nodes); i++ {
					if !approx(pos[nodes[i-1].ID].Y-pos[nodes[i].ID].Y, Step) {
						return false
					}
				}
			}
			return true
		},
		size, size, size, size,
	))

	properties.Property("backup never shares a storage slot", prop.ForAll(
		func(c, d int) bool {
			doc := document(nil, nil, sized("t", c), sized("b", d))
			pos := Compute(doc)
			used := make(map[string]bool)
			for _, p := range pos {
				key := fmt.Sprintf("%.6f/%.6f", p.X, p.Y)
				if used[key] {
					return false
				}
				used[key] = true
			}
			return true
		},
		size, size,
	))

	properties.Property("first node of a column sits at the top", prop.ForAll(
		func(a int) bool {
			doc := document(sized("s", a+1), nil, nil, nil)
			return approx(Compute(doc)["s0"].Y, Top)
		},
		size,
	))

	properties.TestingRun(t)
}
