// Command dutycycle-replay measures the duty cycle of a logic analyzer
// capture, using the same measurer as the live sensor.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/sweeney/dutycycle-sensor/internal/capture"
	"github.com/sweeney/dutycycle-sensor/internal/logic"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("fatal: %v", err)
	}
}

// resultJSON is the -json output.
type resultJSON struct {
	File        string   `json:"file"`
	Transitions int      `json:"transitions"`
	DutyCycle   *float64 `json:"duty_cycle,omitempty"`
	FirstLevel  string   `json:"first_level,omitempty"`
	HighMs      float64  `json:"high_ms"`
	LowMs       float64  `json:"low_ms"`
	Periods     int      `json:"periods"`
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("dutycycle-replay", flag.ContinueOnError)
	start := fs.Float64("start", 0, "ignore transitions before this time (seconds)")
	end := fs.Float64("end", 0, "ignore transitions at or after this time (seconds); 0 means end of capture")
	batch := fs.Int("batch", capture.DefaultBatchSize, "transitions per measurer batch")
	column := fs.Int("column", 1, "CSV column holding the channel level")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: dutycycle-replay [flags] [capture.csv]\n\nReads stdin when no file is given.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("expected at most one capture file, got %d", fs.NArg())
	}
	if *batch <= 0 {
		return fmt.Errorf("batch must be positive, got %d", *batch)
	}

	name := "-"
	in := stdin
	if fs.NArg() == 1 {
		name = fs.Arg(0)
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("open capture: %w", err)
		}
		defer f.Close()
		in = f
	}

	opts := capture.Options{Column: *column, BatchSize: *batch}
	if *start != 0 || *end != 0 {
		sel := &capture.Selection{Start: *start, End: *end}
		if *end == 0 {
			sel.End = math.Inf(1)
		}
		if sel.End <= sel.Start {
			return fmt.Errorf("empty selection: start %v, end %v", sel.Start, sel.End)
		}
		opts.Select = sel
	}

	res, err := capture.Measure(in, opts)
	if err != nil {
		return fmt.Errorf("measure %s: %w", name, err)
	}

	if *asJSON {
		return writeJSON(stdout, name, res)
	}
	return writeText(stdout, res)
}

func writeText(w io.Writer, res capture.Result) error {
	dc, ok := res.Values[logic.DutyCycle]
	if !ok {
		_, err := fmt.Fprintf(w, "no complete period (%d transitions)\n", res.Transitions)
		return err
	}
	_, err := fmt.Fprintf(w, "duty cycle: %.3f%% (%d periods, %d transitions)\n", dc, res.Totals.Periods, res.Transitions)
	return err
}

func writeJSON(w io.Writer, name string, res capture.Result) error {
	out := resultJSON{
		File:        name,
		Transitions: res.Transitions,
		HighMs:      float64(res.Totals.High.Microseconds()) / 1000,
		LowMs:       float64(res.Totals.Low.Microseconds()) / 1000,
		Periods:     res.Totals.Periods,
	}
	if res.Totals.Periods > 0 {
		out.FirstLevel = res.Totals.First.String()
	}
	if dc, ok := res.Values[logic.DutyCycle]; ok {
		out.DutyCycle = &dc
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
