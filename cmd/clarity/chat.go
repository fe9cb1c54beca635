package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"clarity-backend/internal/orchestrator"
)

const (
	cmdSummarize   = "/summarize"
	cmdPersonality = "/personality"
	cmdQuit        = "/quit"
)

// chatLoop feeds lines from in to the orchestrator until the session is
// summarized, the input ends, or ctx is cancelled.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, o *orchestrator.Orchestrator, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := o.Start(); err != nil {
		return err
	}

	for !o.Closed() {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}

		text := strings.TrimSpace(line)
		switch {
		case text == cmdQuit:
			return nil

		case text == cmdSummarize:
			if _, err := o.Summarize(ctx); err != nil {
				logger.Debug("Summary failed", zap.Error(err))
			}

		case strings.HasPrefix(text, cmdPersonality+" ") || text == cmdPersonality:
			label := strings.TrimSpace(strings.TrimPrefix(text, cmdPersonality))
			if label == "" {
				fmt.Fprintf(out, "Personality is %s.\n", o.Personality().Label())
				continue
			}
			p, ok := o.SetPersonality(label)
			if !ok {
				fmt.Fprintf(out, "Unknown personality %q, using %s.\n", label, p.Label())
			} else {
				fmt.Fprintf(out, "Personality set to %s.\n", p.Label())
			}

		default:
			err := o.Submit(ctx, line)
			switch {
			case err == nil:
			case errors.Is(err, orchestrator.ErrBusy), errors.Is(err, orchestrator.ErrSessionClosed):
				fmt.Fprintln(out, err.Error())
			default:
				logger.Debug("Chat exchange failed", zap.Error(err))
			}
		}
	}
	return nil
}
