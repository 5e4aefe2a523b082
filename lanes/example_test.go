package lanes_test

import (
	"context"
	"fmt"

	"github.com/amp-labs/amp-agents/lanes"
)

func ExampleSubmit() {
	exec, err := lanes.New(4, lanes.WithName("example"))
	if err != nil {
		panic(err)
	}
	defer exec.Shutdown()

	total := 0

	// Same key, same lane: the additions never race.
	for i := 1; i <= 3; i++ {
		lanes.Submit(exec, 7, func(context.Context) (int, error) {
			total += i

			return total, nil
		})
	}

	sum, err := lanes.Submit(exec, 7, func(context.Context) (int, error) {
		return total, nil
	}).Await()
	if err != nil {
		panic(err)
	}

	fmt.Println(sum, exec.LaneName(exec.LaneFor(7)))
	// Output: 6 example-4
}
