// Package console reads maintenance commands from an interactive stream
// (normally stdin) next to the running bot.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/commands"
)

const usage = `Commands:
  zitat add <messageId>
  zitat remove <messageId>
  user add <name> <platformId>
  user stats <name>
  user ranking <said|wrote|assisted>
  user quotes <name>
  exit`

// Console is a line-based command loop over the command facade
type Console struct {
	facade *commands.Facade
	in     io.Reader
	out    io.Writer
	logger *zap.Logger
}

// New creates a console reading from in and printing to out
func New(facade *commands.Facade, in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	return &Console{facade: facade, in: in, out: out, logger: logger}
}

// Run processes lines until exit, end of input or ctx cancellation.
// It returns nil only when the user asked to exit, and io.EOF when input ended.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.logger.Info("Console input", zap.String("line", line))

		out, exit := c.Execute(ctx, line)
		if out != "" {
			fmt.Fprintln(c.out, out)
		}
		if exit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Execute runs one console line and returns its output. exit is set for "exit".
func (c *Console) Execute(ctx context.Context, line string) (out string, exit bool) {
	args, err := shellquote.Split(line)
	if err != nil {
		c.logger.Debug("Quote parsing failed, using simple split", zap.String("line", line), zap.Error(err))
		args = strings.Fields(line)
	}
	if len(args) == 0 {
		return "", false
	}

	switch args[0] {
	case "zitat":
		return c.quoteCommand(ctx, args[1:]), false
	case "user":
		return c.userCommand(ctx, args[1:]), false
	case "help":
		return usage, false
	case "exit":
		c.logger.Info("Exiting...")
		return "", true
	}
	return "Unknown command", false
}

func (c *Console) quoteCommand(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Missing subcommand"
	}
	switch args[0] {
	case "add", "remove":
		if len(args) < 2 {
			return "Missing message id"
		}
		if args[0] == "add" {
			return c.facade.SubmitQuoteByID(ctx, args[1])
		}
		return c.facade.RemoveQuoteByID(ctx, args[1])
	}
	return "Unknown subcommand"
}

func (c *Console) userCommand(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Missing subcommand"
	}
	switch args[0] {
	case "add":
		if len(args) < 3 {
			return "Usage: user add <name> <platformId>"
		}
		return c.facade.AddUser(ctx, args[2], args[1])
	case "stats":
		if len(args) < 2 {
			return "Missing user"
		}
		return c.facade.Stats(ctx, strings.Join(args[1:], " "))
	case "quotes":
		if len(args) < 2 {
			return "Missing user"
		}
		return c.facade.Quotes(ctx, strings.Join(args[1:], " "))
	case "ranking":
		if len(args) < 2 {
			return "Missing ranking type"
		}
		return c.facade.Ranking(ctx, args[1])
	}
	return "Unknown subcommand"
}
