package agent_test

import (
	"errors"
	"fmt"

	"github.com/amp-labs/amp-agents/agent"
	"github.com/amp-labs/amp-agents/lanes"
)

func ExampleAgent_Update() {
	exec, err := lanes.New(2)
	if err != nil {
		panic(err)
	}
	defer exec.Shutdown()

	account, err := agent.New(exec, 100)
	if err != nil {
		panic(err)
	}

	sub := account.Watch(func(balance int) {
		fmt.Println("balance is now", balance)
	})
	defer sub.Unwatch()

	_, err = account.Update(func(balance int) (int, error) {
		if balance < 150 {
			return balance, errors.New("insufficient funds")
		}

		return balance - 150, nil
	}).Await()
	fmt.Println(err)

	balance, _ := account.Update(func(balance int) (int, error) {
		return balance + 25, nil
	}).Await()
	fmt.Println(balance)

	// Output:
	// insufficient funds
	// balance is now 125
	// 125
}
