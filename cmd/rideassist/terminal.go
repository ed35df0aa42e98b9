// README: Line-oriented terminal prompts and the interactive cancellation fact source.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rideassist/internal/modules/adjudication"
)

type terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{in: bufio.NewReader(in), out: out}
}

// Ask prints question and returns the trimmed reply. io.EOF means the input
// is closed.
func (t *terminal) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(t.out, question)
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *terminal) say(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

// askInt re-prompts until a non-negative integer is entered. blankOK allows
// an empty reply, reported as ok=false.
func (t *terminal) askInt(ctx context.Context, question string, blankOK bool) (n int, ok bool, err error) {
	for {
		s, err := t.Ask(ctx, question)
		if err != nil {
			return 0, false, err
		}
		if s == "" && blankOK {
			return 0, false, nil
		}
		n, err := strconv.Atoi(s)
		if err == nil && n >= 0 {
			return n, true, nil
		}
		t.say("Please enter a whole number of 0 or more.")
	}
}

// promptFacts asks the rider for each cancellation fact as the cascade needs it.
type promptFacts struct {
	term *terminal
}

func (p promptFacts) CancellingParty(ctx context.Context) (adjudication.Party, error) {
	for {
		s, err := p.term.Ask(ctx, "Who cancelled the ride? (driver/rider): ")
		if err != nil {
			return "", err
		}
		party, err := adjudication.ParseParty(s)
		if err == nil {
			return party, nil
		}
		p.term.say("Please answer driver or rider.")
	}
}

func (p promptFacts) Arrived(ctx context.Context) (bool, error) {
	for {
		s, err := p.term.Ask(ctx, "Had the driver arrived at the pickup location? (yes/no): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		p.term.say("Please answer yes or no.")
	}
}

func (p promptFacts) DistanceFromPin(ctx context.Context) (int, error) {
	n, _, err := p.term.askInt(ctx, "How far was the driver from the pickup pin (metres)? ", false)
	return n, err
}

func (p promptFacts) WaitTime(ctx context.Context) (int, error) {
	n, _, err := p.term.askInt(ctx, "How long had the driver waited (minutes)? ", false)
	return n, err
}

func (p promptFacts) CancellationTime(ctx context.Context) (int, error) {
	n, _, err := p.term.askInt(ctx, "How many minutes after booking was the ride cancelled? ", false)
	return n, err
}
