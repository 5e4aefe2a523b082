package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

var ErrNotPositive = errors.New("amount must be a positive whole number")

// Terminal runs prompts against a pair of streams.
type Terminal struct {
	In  io.ReadCloser
	Out io.WriteCloser
}

// Stdio is a Terminal bound to the process's standard streams.
func Stdio() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

// ValidateAmount accepts strictly positive integers.
func ValidateAmount(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("%w: %q", ErrNotPositive, s)
	}

	return nil
}

// Amount prompts for a positive integer.
func (t *Terminal) Amount(label string) (int, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: ValidateAmount,
		Stdin:    t.In,
		Stdout:   t.Out,
	}

	txt, err := prompt.Run()
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(strings.TrimSpace(txt))
}

// Confirm asks a yes/no question. Answering no is not an error.
func (t *Terminal) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     t.In,
		Stdout:    t.Out,
	}

	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Choose shows a menu and returns the picked item.
func (t *Terminal) Choose(label string, items ...string) (string, error) {
	sel := promptui.Select{
		Label: label,
		Items: items,
		Size:  len(items),
		Searcher: func(input string, index int) bool {
			return strings.HasPrefix(strings.ToLower(items[index]), strings.ToLower(input))
		},
		Stdin:  t.In,
		Stdout: t.Out,
	}

	_, value, err := sel.Run()

	return value, err
}
