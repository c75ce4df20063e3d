package boolean_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/platepack/pkg/boolean"
	"github.com/matzehuels/platepack/pkg/packing"
)

func ExampleSearch() {
	// Two 3-wide and two 5-wide circuits on an 8-wide plate
	inst := packing.NewInstance(8, []int{3, 3, 5, 5}, []int{3, 5, 3, 5}, 16)

	out, err := boolean.Search{}.Solve(context.Background(), inst)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Status:", out.Status)
	fmt.Println("Length:", out.Length())
	// Output:
	// Status: optimal
	// Length: 8
}
