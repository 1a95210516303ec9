package buildsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ProcessRunner executes external tools. Run blocks until the tool exits and returns its exit code.
// A non-zero exit code is always accompanied by an error wrapping ErrToolFailed.
type ProcessRunner interface {
	Run(ctx context.Context, name string, args ...string) (int, error)
}

// ShellRunner runs commands through mvdan.cc/sh's interpreter. Every argument is passed as a single word
// so nothing is re-split or expanded, regardless of the platform.
type ShellRunner struct {
	// Dir is the working directory for all commands. Empty means the current directory.
	Dir string
	// Output receives both stdout and stderr of every command. Defaults to os.Stdout.
	Output io.Writer
	Env    map[string]string
	// DryRun only logs the commands
	DryRun bool
}

var _ ProcessRunner = (*ShellRunner)(nil)

var dblQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

func isPlainChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./=:,+@%", r)
}

func shellWord(value string) *syntax.Word {
	var part syntax.WordPart

	plain := value != "" && strings.IndexFunc(value, func(r rune) bool { return !isPlainChar(r) }) == -1
	switch {
	case plain:
		part = &syntax.Lit{Value: value}
	case !strings.Contains(value, "'"):
		part = &syntax.SglQuoted{Value: value}
	default:
		part = &syntax.DblQuoted{Parts: []syntax.WordPart{
			&syntax.Lit{Value: dblQuoteEscaper.Replace(value)},
		}}
	}

	return &syntax.Word{Parts: []syntax.WordPart{part}}
}

func commandExpr(name string, args []string) *syntax.CallExpr {
	cmd := new(syntax.CallExpr)
	cmd.Args = make([]*syntax.Word, 0, len(args)+1)
	cmd.Args = append(cmd.Args, shellWord(name))
	for _, arg := range args {
		cmd.Args = append(cmd.Args, shellWord(arg))
	}
	return cmd
}

// FormatCommand renders a command line the way it's logged
func FormatCommand(name string, args ...string) string {
	strBuffer := strings.Builder{}
	printer := syntax.NewPrinter(syntax.Minify(true))
	err := printer.Print(&strBuffer, commandExpr(name, args))
	if err != nil {
		return strings.Join(append([]string{name}, args...), " ")
	}
	return strBuffer.String()
}

func (r *ShellRunner) environ() expand.Environ {
	envVars := os.Environ()
	for name, value := range r.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", name, value))
	}

	return expand.ListEnviron(envVars...)
}

// Run implements ProcessRunner
func (r *ShellRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	cmdLine := FormatCommand(name, args...)
	log(ctx).Debug().
		Bool("command", true).
		Msg(cmdLine)

	if r.DryRun {
		log(ctx).Info().Msgf("(dry run) %s", cmdLine)
		return 0, nil
	}

	out := r.Output
	if out == nil {
		out = os.Stdout
	}

	options := []interp.RunnerOption{
		interp.Env(r.environ()),
		interp.ExecHandler(interp.DefaultExecHandler(2 * time.Second)),
		interp.StdIO(nil, out, out),
	}
	if r.Dir != "" {
		options = append(options, interp.Dir(r.Dir))
	}

	runner, err := interp.New(options...)
	if err != nil {
		return -1, eris.Wrap(err, "Failed to initialize runner")
	}

	err = runner.Run(ctx, commandExpr(name, args))
	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return int(status), eris.Wrapf(ErrToolFailed, "%s exited with status %d", cmdLine, status)
		}

		return -1, eris.Wrapf(err, "failed to run %s", cmdLine)
	}

	return 0, nil
}
