// Command bank is an interactive session over a single account agent.
// Withdrawals that would overdraw the account fail and leave the balance
// untouched.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/amp-labs/amp-agents/agent"
	"github.com/amp-labs/amp-agents/cli"
	"github.com/amp-labs/amp-agents/lanes"
	"github.com/amp-labs/amp-agents/script"
	"github.com/manifoldco/promptui"
)

const (
	actionDeposit  = "Deposit"
	actionWithdraw = "Withdraw"
	actionBalance  = "Balance"
	actionWatch    = "Toggle watcher"
	actionQuit     = "Quit"
)

var (
	opening = flag.Int("opening", 0, "opening balance")
	envFile = flag.String("env-file", "", "load variables from a .env, .json or .yaml file")
)

var ErrInsufficientFunds = errors.New("insufficient funds")

func main() {
	script.New("bank",
		script.WithEnvFileProvider(func() string { return *envFile }),
	).Run(run)
}

func deposit(amount int) func(int) (int, error) {
	return func(balance int) (int, error) {
		return balance + amount, nil
	}
}

func withdraw(amount int) func(int) (int, error) {
	return func(balance int) (int, error) {
		if amount > balance {
			return balance, fmt.Errorf("%w: balance is %d, asked for %d", ErrInsufficientFunds, balance, amount)
		}

		return balance - amount, nil
	}
}

func run(ctx context.Context) error {
	exec, err := lanes.New(1, lanes.WithName("bank"), lanes.WithShutdownHook())
	if err != nil {
		return err
	}

	account, err := agent.New(exec, *opening, agent.WithName("account"))
	if err != nil {
		return err
	}

	term := cli.Stdio()

	fmt.Print(cli.Panel("bank", []string{
		fmt.Sprintf("account %s", account.ID()),
		fmt.Sprintf("lane    %s", exec.LaneName(account.Lane())),
		fmt.Sprintf("balance %d", account.Read()),
	}, cli.DefaultWidth))

	var sub *agent.Subscription

	for ctx.Err() == nil {
		action, err := term.Choose("What next", actionDeposit, actionWithdraw, actionBalance, actionWatch, actionQuit)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}

			return err
		}

		switch action {
		case actionDeposit, actionWithdraw:
			amount, err := term.Amount("Amount")
			if err != nil {
				return err
			}

			op := deposit(amount)
			if action == actionWithdraw {
				op = withdraw(amount)
			}

			balance, err := account.Update(op).AwaitContext(ctx)
			if err != nil {
				fmt.Println("rejected:", err)
				fmt.Println("balance:", account.Read())

				continue
			}

			fmt.Println("balance:", balance)
		case actionBalance:
			fmt.Println("balance:", account.Read())
		case actionWatch:
			if sub != nil {
				sub.Unwatch()
				sub = nil

				fmt.Println("watcher off")

				continue
			}

			sub = account.Watch(func(balance int) {
				fmt.Println("[watch] balance changed to", balance)
			})

			fmt.Println("watcher on")
		case actionQuit:
			ok, err := term.Confirm("Close the session")
			if err != nil {
				return err
			}

			if ok {
				return nil
			}
		}
	}

	return nil
}
