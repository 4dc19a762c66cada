package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wirecall/wirecall"
	"golang.org/x/sync/errgroup"
)

// batchEntry is one parsed METHOD=PARAMS command line argument.
type batchEntry struct {
	Method string
	Args   []interface{}
}

// batchLine is the output record for one batch call, printed as a JSON
// line.
type batchLine struct {
	Method string          `json:"method"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func runBatch(configPath string, options batchOptions) error {
	entries := make([]batchEntry, 0, len(options.Args.Calls))
	for _, raw := range options.Args.Calls {
		entry, err := parseBatchEntry(raw)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	client, err := dialEndpoint(configPath, options.Args.Endpoint, options.Header)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), options.Timeout)
	defer cancel()

	if options.Parallel {
		return runParallel(ctx, client, entries)
	}

	batch := client.NewBatch()
	elems := make([]*wirecall.BatchElem, len(entries))
	for i, entry := range entries {
		elems[i] = batch.Call(entry.Method, entry.Args...)
	}
	if err := batch.Send(ctx); err != nil {
		return err
	}

	lines := make([]batchLine, len(elems))
	for i, elem := range elems {
		if elem.Err != nil {
			lines[i] = batchLine{Method: elem.Method, Error: elem.Err.Error()}
			continue
		}
		lines[i] = batchLine{Method: elem.Method, Result: elem.Result}
	}
	return printLines(os.Stdout, lines)
}

// runParallel issues each call as its own request, all in flight at
// once. Per-call failures land in the output lines rather than aborting
// the whole run.
func runParallel(ctx context.Context, client *wirecall.Client, entries []batchEntry) error {
	lines := make([]batchLine, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			var result json.RawMessage
			if err := client.Call(ctx, &result, entry.Method, entry.Args...); err != nil {
				lines[i] = batchLine{Method: entry.Method, Error: err.Error()}
				return nil
			}
			lines[i] = batchLine{Method: entry.Method, Result: result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return printLines(os.Stdout, lines)
}

func printLines(w io.Writer, lines []batchLine) error {
	enc := json.NewEncoder(w)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

// parseBatchEntry splits a METHOD or METHOD=PARAMS argument. PARAMS is a
// single JSON value. Arrays become positional arguments and objects
// become named arguments; any other value is passed as the only
// argument.
func parseBatchEntry(raw string) (batchEntry, error) {
	method, params, ok := strings.Cut(raw, "=")
	if method == "" {
		return batchEntry{}, ErrExplain{
			fmt.Errorf("invalid batch call: %q", raw),
			"Batch calls are given as METHOD or METHOD=PARAMS.",
		}
	}
	entry := batchEntry{Method: method}
	if !ok {
		return entry, nil
	}
	var value interface{}
	if err := json.Unmarshal([]byte(params), &value); err != nil {
		return batchEntry{}, ErrExplain{
			fmt.Errorf("invalid params for %q: %s", method, err),
			`PARAMS must be a single JSON value, like [1,2] or {"scoops":2}.`,
		}
	}
	switch v := value.(type) {
	case []interface{}:
		entry.Args = v
	case map[string]interface{}:
		entry.Args = []interface{}{wirecall.Named(v)}
	default:
		entry.Args = []interface{}{value}
	}
	return entry, nil
}
