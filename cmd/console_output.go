package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ConsoleWriter turns zerolog's JSON events into coloured, human readable lines.
// Events logged for a dependency are prefixed with its name and tool invocations with "$ ".
type ConsoleWriter struct {
	Out      io.Writer
	Colorize colorstring.Colorize

	// Root is the project root; paths below it are printed relative to it
	Root string
	// Debug appends every field of the event
	Debug bool

	buffer strings.Builder
	lock   sync.Mutex
}

func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{
		Out: out,
		Colorize: colorstring.Colorize{
			Colors: colorstring.DefaultColors,
			Reset:  true,
		},
	}
}

func (w *ConsoleWriter) relPath(path string) (string, bool) {
	base := w.Root
	if base == "" {
		base = "."
	}

	relPath, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", false
	}
	return relPath, true
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt["level"] {
	case "fatal":
		fallthrough
	case "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug":
		fallthrough
	case "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	dep, ok := evt["dep"].(string)
	if ok {
		w.buffer.WriteString(dep + ": ")
	}

	if evt["level"] == "error" {
		w.buffer.WriteString("Error: ")
	}

	if isCmd, _ := evt["command"].(bool); isCmd {
		w.buffer.WriteString("$ ")
	}

	msg, _ := evt["message"].(string)

	path, ok := evt["path"].(string)
	if ok {
		relPath, ok := w.relPath(path)
		if ok {
			msg = strings.ReplaceAll(msg, path, relPath)
		}
	}

	w.buffer.WriteString(msg)

	errorDetails, ok := evt["error"].(string)
	if ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	if w.Debug {
		w.buffer.WriteString("\n")
		names := make([]string, 0, len(evt))
		for name := range evt {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			w.buffer.WriteString(fmt.Sprintf("  %s: %+v\n", name, evt[name]))
		}
	}

	w.buffer.WriteString("[reset]\n")
	_, err = fmt.Fprint(w.Out, w.Colorize.Color(w.buffer.String()))
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// errorMarshaler renders eris errors with their stack trace if withTrace is set
func errorMarshaler(withTrace bool) func(error) interface{} {
	return func(err error) interface{} {
		return eris.ToString(err, withTrace)
	}
}

func init() {
	zerolog.ErrorMarshalFunc = errorMarshaler(false)
}
