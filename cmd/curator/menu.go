package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var errNoTopics = errors.New("no topics configured; pass a topic as an argument")

// selectTopic shows a numbered menu and reads choices from in until a valid
// one arrives. It returns io.EOF when input ends and ctx.Err() when canceled.
func selectTopic(ctx context.Context, in io.Reader, out io.Writer, topics []string) (string, error) {
	if len(topics) == 0 {
		return "", errNoTopics
	}

	fmt.Fprintln(out, "\nAvailable Topics:")
	for i, t := range topics {
		fmt.Fprintf(out, "%d. %s\n", i+1, t)
	}

	// The reader goroutine stays blocked in Scan after a choice is made
	// until stdin closes; it ends with the process.
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "Select a topic number: ")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return "", io.EOF
			}
			n, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				fmt.Fprintln(out, "Invalid input. Please enter a number.")
				continue
			}
			if n < 1 || n > len(topics) {
				fmt.Fprintln(out, "Invalid topic selection. Please try again.")
				continue
			}
			return topics[n-1], nil
		}
	}
}
