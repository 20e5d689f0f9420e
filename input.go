package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gravitational/trace"
)

// prompter asks the operator yes/no questions
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// confirm asks the question in title until it gets a valid answer.
// An empty answer means yes
func (p *prompter) confirm(title string) (bool, error) {
	input, err := p.readCheck(fmt.Sprintf("%v (Y/n)", title), checkYesNo)
	if err != nil {
		return false, trace.Wrap(err)
	}
	b, err := strconv.ParseBool(input)
	if err != nil {
		return false, trace.Wrap(err)
	}
	return b, nil
}

func (p *prompter) readCheck(prompt string, fn func(v string) (string, error)) (string, error) {
	for {
		out, err := p.readInput(prompt)
		if err != nil {
			return "", err
		}
		out, err = fn(out)
		if err != nil {
			fmt.Fprintf(p.out, "%v\n", err)
			continue
		}
		return out, nil
	}
}

func (p *prompter) readInput(prompt string) (string, error) {
	fmt.Fprintf(p.out, "%v: ", prompt)
	bytes, err := p.in.ReadSlice('\n')
	if err != nil && (err != io.EOF || len(bytes) == 0) {
		return "", trace.Wrap(err)
	}
	return strings.TrimSpace(string(bytes)), nil
}

func checkYesNo(v string) (string, error) {
	switch v {
	case "", "Y", "y", "yes":
		return "true", nil
	case "N", "n", "no":
		return "false", nil
	}
	return "", trace.BadParameter("invalid input: %v", v)
}
