package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/modeswitch/controller/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print every cycle, not just failures")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if fixture.Description != "" {
		fmt.Printf("fixture: %s\n", fixture.Description)
	}

	results, summary, err := replay.Run(fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
		os.Exit(1)
	}

	for _, res := range results {
		if res.Passed && !*verbose {
			continue
		}
		status := "ok"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s\n", status, res.CycleID)
		if *verbose {
			for _, out := range res.Outcomes {
				marker := ""
				if out.Secondary {
					marker = " (secondary)"
				}
				fmt.Printf("    %s: %s: %s%s\n", out.Group, out.Label, out.ActionName, marker)
			}
		}
		for _, mismatch := range res.Mismatches {
			fmt.Printf("    mismatch: %s\n", mismatch)
		}
	}

	fmt.Printf("%d cycles: %d passed, %d failed\n", summary.TotalCycles, summary.Passed, summary.Failed)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// #endregion main
