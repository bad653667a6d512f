package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

// emit writes v to the app writer. With --json it prints v as one line of
// JSON; with --jq it prints every result of the filter applied to that JSON.
// Otherwise human is called to print a readable rendition.
func emit(c *cli.Context, v any, human func(w io.Writer)) error {
	w := c.App.Writer
	filter := c.String("jq")

	if filter == "" && !c.Bool("json") {
		human(w)
		return nil
	}

	if filter == "" {
		return writeJSONLine(w, v)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	results, err := applyJQ(filter, data)
	if err != nil {
		return err
	}
	for _, result := range results {
		if err := writeJSONLine(w, result); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// applyJQ runs a jq filter over a JSON document and collects its results.
// Numbers are decoded exactly so large base-unit amounts survive filtering.
func applyJQ(filter string, data []byte) ([]any, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON for jq: %w", err)
	}

	var results []any
	iter := code.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter %q failed: %w", filter, err)
		}
		results = append(results, v)
	}
	return results, nil
}

// newLogger creates the CLI's stderr logger. Diagnostics stay quiet unless
// --log-level asks for more.
func newLogger(c *cli.Context) *slog.Logger {
	return setupLogger(c.String("log-level"))
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	default:
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
