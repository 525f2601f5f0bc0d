package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const historyFileName = ".hwalias_history"

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Open an interactive shell on the alias store",
		Long: `Open an interactive shell on the alias store. Every command of hwalias
except serve and shell is available. Type exit, quit or q to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Later lines rebuild the flags, so the store must be open first
			if _, err := a.open(cmd); err != nil {
				return err
			}
			return a.repl(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) repl(ctx context.Context, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(a.complete)

	history := historyPath()
	if f, err := os.Open(history); err == nil {
		if _, err := line.ReadHistory(f); err != nil {
			glog.V(2).Infof("Ignoring shell history %s: %v", history, err)
		}
		f.Close()
	}
	defer func() {
		f, err := os.Create(history)
		if err != nil {
			glog.V(2).Infof("Cannot save shell history %s: %v", history, err)
			return
		}
		defer f.Close()
		if _, err := line.WriteHistory(f); err != nil {
			glog.V(2).Infof("Cannot save shell history %s: %v", history, err)
		}
	}()

	fmt.Fprintln(out, "hwalias shell, type help for commands")
	for {
		input, err := line.Prompt("hwalias> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := a.runLine(ctx, input, out)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// runLine executes one shell line and reports whether the shell should exit.
func (a *app) runLine(ctx context.Context, input string, out io.Writer) (bool, error) {
	args := strings.Fields(input)
	if len(args) == 0 {
		return false, nil
	}
	switch args[0] {
	case "exit", "quit", "q":
		return true, nil
	}

	a.interactive = true
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	root.SilenceErrors = true
	return false, root.ExecuteContext(ctx)
}

func (a *app) complete(input string) []string {
	if strings.ContainsAny(input, " \t") {
		return nil
	}
	a.interactive = true
	var matches []string
	for _, cmd := range newRootCommand(a).Commands() {
		if strings.HasPrefix(cmd.Name(), input) {
			matches = append(matches, cmd.Name())
		}
	}
	for _, word := range []string{"help", "exit", "quit"} {
		if strings.HasPrefix(word, input) {
			matches = append(matches, word)
		}
	}
	return matches
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFileName
	}
	return filepath.Join(home, historyFileName)
}
