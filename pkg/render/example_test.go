package render_test

import (
	"fmt"

	"github.com/matzehuels/platepack/pkg/packing"
	"github.com/matzehuels/platepack/pkg/render"
)

func ExampleRenderASCII() {
	inst := packing.NewInstance(4, []int{3, 1, 4}, []int{1, 2, 1}, 0)
	sol := &packing.Solution{
		Length: 3,
		Placements: []packing.Placement{
			{Circuit: 0, X: 0, Y: 0},
			{Circuit: 1, X: 3, Y: 0},
			{Circuit: 2, X: 0, Y: 2},
		},
	}
	fmt.Print(render.RenderASCII(inst, sol))
	// Output:
	// CCCC
	// ...B
	// AAAB
}
