package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/pilot/pkg/agent/tools"
	"github.com/entrhq/pilot/pkg/computer"
	"github.com/entrhq/pilot/pkg/logging"
	toolscomputer "github.com/entrhq/pilot/pkg/tools/computer"
)

const (
	maxReplLine   = 10 * 1024 * 1024
	listToolsWord = "tools"
	sessionWord   = "session"
)

// toolInfo describes one tool in the "tools" listing.
type toolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Schema      map[string]interface{} `json:"schema"`
}

// sessionInfo is printed by the "session" command.
type sessionInfo struct {
	ID       string   `json:"id"`
	Attached bool     `json:"attached"`
	Pages    []string `json:"pages"`
}

// sessionView is what the repl reports about its browser session.
type sessionView interface {
	ID() string
	Attached() bool
	Pages() ([]string, error)
}

// toolSet is what the repl needs from a registry.
type toolSet interface {
	tools.Lookup
	GetTools() []tools.Tool
}

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Execute XML tool calls read from stdin against one browser session",
		Long: `Repl opens a browser session and reads tool calls from stdin, for example:

  <tool><tool_name>computer_click</tool_name><arguments><x>10</x><y>20</y></arguments></tool>

Each call is executed as soon as its closing </tool> tag arrives and its result
is printed as one line of JSON. A line containing only "tools" lists the
available tools with their schemas, and "session" prints the session id,
whether the browser was attached, and the URLs of its open pages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return computer.Use(ctx, opts, func(s *computer.Session) error {
				registry := toolscomputer.NewToolRegistry(s)
				registry.RegisterTools()
				return serveREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), registry, s, a.logger().Named("repl"))
			})
		},
	}
}

// serveREPL executes tool calls from in until in is exhausted or ctx ends.
// Calls may span lines; a call is run once its closing tag has been read.
//
// If in is an io.Closer it is closed when ctx ends so the reading goroutine
// can return. A reader that cannot be closed keeps that goroutine blocked in
// Read until input arrives or the process exits.
func serveREPL(ctx context.Context, in io.Reader, out io.Writer, registry toolSet, session sessionView, log *logging.Logger) error {
	closeInput := func() {}
	if c, ok := in.(io.Closer); ok {
		closeInput = func() {
			if err := c.Close(); err != nil {
				log.Debugf("Closing input: %v", err)
			}
		}
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxReplLine)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	enc := json.NewEncoder(out)
	var pending strings.Builder

	for {
		select {
		case <-ctx.Done():
			closeInput()
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				if rest := strings.TrimSpace(pending.String()); rest != "" {
					log.Warnf("Discarding incomplete input at end of stream: %.80s", rest)
				}
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}

			if pending.Len() == 0 && strings.TrimSpace(line) == listToolsWord {
				if err := enc.Encode(describeTools(registry.GetTools())); err != nil {
					return err
				}
				continue
			}

			if pending.Len() == 0 && strings.TrimSpace(line) == sessionWord {
				if err := enc.Encode(describeSession(session)); err != nil {
					return err
				}
				continue
			}

			pending.WriteString(line)
			pending.WriteByte('\n')
			if !strings.Contains(line, "</tool>") {
				continue
			}

			text := pending.String()
			pending.Reset()
			if err := runCalls(ctx, text, enc, registry, log); err != nil {
				return err
			}
		}
	}
}

func runCalls(ctx context.Context, text string, enc *json.Encoder, registry tools.Lookup, log *logging.Logger) error {
	calls, parseErr := tools.ParseToolCalls(text)
	for _, call := range calls {
		if args, err := call.ArgumentFields(); err == nil {
			log.Debugf("Invoking %s with %v", call.ToolName, args)
		}
		result := tools.Invoke(ctx, registry, call)
		if !result.OK() {
			log.Warnf("Tool %s failed: %s", call.ToolName, result.Error)
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	if parseErr == nil && len(calls) == 0 {
		parseErr = fmt.Errorf("no tool call found in input")
	}
	if parseErr != nil {
		log.Warnf("Rejected tool call: %v", parseErr)
		return enc.Encode(&tools.ToolResult{Error: parseErr.Error()})
	}
	return nil
}

func describeTools(ts []tools.Tool) []toolInfo {
	infos := make([]toolInfo, 0, len(ts))
	for _, t := range ts {
		infos = append(infos, toolInfo{Name: t.Name(), Description: t.Description(), Schema: t.Schema()})
	}
	return infos
}

func describeSession(s sessionView) interface{} {
	pages, err := s.Pages()
	if err != nil {
		return &tools.ToolResult{Error: fmt.Sprintf("failed to list pages: %v", err)}
	}
	return sessionInfo{ID: s.ID(), Attached: s.Attached(), Pages: pages}
}
