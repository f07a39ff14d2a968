package bugstr

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// Payload is the crash report data sent to the recipient.
type Payload struct {
	Message     string `json:"message"`
	Stack       string `json:"stack,omitempty"`
	Timestamp   int64  `json:"timestamp"`
	Environment string `json:"environment,omitempty"`
	Release     string `json:"release,omitempty"`
}

// Summary provides a preview of the crash for confirmation prompts.
type Summary struct {
	Message      string
	StackPreview string
}

// CaptureException builds a crash payload from err and sends it in the
// background. Hooks run first: BeforeSend may modify or drop the payload,
// ConfirmSend may veto it. Send failures are dropped unless a send error
// handler is configured, so reporting can never crash the host.
func (c *Client) CaptureException(err error) {
	payload := c.buildPayload(err)

	if c.cfg.beforeSend != nil {
		payload = c.cfg.beforeSend(payload)
		if payload == nil {
			return
		}
	}

	if c.cfg.confirmSend != nil {
		summary := Summary{
			Message:      payload.Message,
			StackPreview: truncateStack(payload.Stack, 3),
		}
		if !c.cfg.confirmSend(summary) {
			return
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.sendTimeout)
		defer cancel()

		body, err := json.Marshal(payload)
		if err != nil {
			c.reportSendError(err)
			return
		}

		if _, err := c.Send(ctx, maybeCompress(body)); err != nil {
			c.reportSendError(err)
		}
	}()
}

// CaptureMessage sends a message as a crash report.
func (c *Client) CaptureMessage(msg string) {
	c.CaptureException(fmt.Errorf("%s", msg))
}

// Recover captures panics, sends a crash report, and re-panics.
// Use with defer at the top of main() or goroutines:
//
//	defer client.Recover()
func (c *Client) Recover() {
	if r := recover(); r != nil {
		c.CaptureException(fmt.Errorf("panic: %v", r))
		panic(r)
	}
}

// RecoverAndContinue captures panics without re-panicking. Useful for
// goroutines that should not crash the program.
func (c *Client) RecoverAndContinue() {
	if r := recover(); r != nil {
		c.CaptureException(fmt.Errorf("panic: %v", r))
	}
}

func (c *Client) buildPayload(err error) *Payload {
	msg := "Unknown error"
	if err != nil {
		msg = err.Error()
	}

	patterns := c.cfg.redactions
	return &Payload{
		Message:     redact(msg, patterns),
		Stack:       redact(captureStack(), patterns),
		Timestamp:   c.cfg.clock().UnixMilli(),
		Environment: c.cfg.environment,
		Release:     c.cfg.release,
	}
}

func (c *Client) reportSendError(err error) {
	if c.cfg.onSendError != nil {
		c.cfg.onSendError(err)
	}
}

func captureStack() string {
	buf := make([]byte, 64*1024)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

func redact(input string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		input = p.ReplaceAllString(input, "[redacted]")
	}
	return input
}

func truncateStack(stack string, lines int) string {
	parts := strings.SplitN(stack, "\n", lines+1)
	if len(parts) > lines {
		return strings.Join(parts[:lines], "\n")
	}
	return stack
}
