package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/modeswitch/controller/internal/journal"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to journal.db")
	sessionID := flag.String("session", "", "session to inspect (default: most recent)")
	table := flag.String("table", "summary", "what to show: summary, decisions, switches, actions, states, metrics")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/journal.db [--session id] [--table name] [--json]")
		os.Exit(2)
	}

	jour, err := journal.OpenExisting(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer jour.Close()

	session := *sessionID
	if session == "" {
		sessions, err := jour.Sessions()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "no sessions found")
			os.Exit(1)
		}
		session = sessions[0]
	}

	if err := run(jour, session, *table, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region tables

func run(jour *journal.Journal, session, table string, jsonOut bool) error {
	switch table {
	case "summary":
		s, err := jour.Summarize(session)
		if err != nil {
			return err
		}
		if jsonOut {
			return emit(s)
		}
		fmt.Printf("session   %s\n", s.SessionID)
		fmt.Printf("task      %s\n", s.Task)
		fmt.Printf("decisions %d\n", s.Decisions)
		fmt.Printf("actions   %d\n", s.Actions)
		fmt.Printf("switches  %d (%d manual)\n", s.ModeSwitches, s.ManualSwitches)
		fmt.Printf("duration  %s\n", s.Duration)
		return nil

	case "decisions":
		rows, err := jour.Decisions(session)
		if err != nil {
			return err
		}
		if jsonOut {
			return emit(rows)
		}
		for _, row := range rows {
			fmt.Printf("%s  attempts=%d\n", row.CreatedAt.Format("15:04:05"), row.Attempts)
			for _, out := range row.Outcomes {
				marker := ""
				if out.Secondary {
					marker = " (secondary)"
				}
				fmt.Printf("  %s: %s: %s%s\n", out.Group, out.Label, out.ActionName, marker)
			}
		}
		return nil

	case "switches":
		rows, err := jour.ModeSwitches(session)
		if err != nil {
			return err
		}
		if jsonOut {
			return emit(rows)
		}
		for _, row := range rows {
			fmt.Printf("%s  %-9s  up=%s down=%s left=%s right=%s\n",
				row.CreatedAt.Format("15:04:05"), row.Initiator,
				row.Mapping.Up, row.Mapping.Down, row.Mapping.Left, row.Mapping.Right)
		}
		return nil

	case "actions":
		rows, err := jour.Actions(session)
		if err != nil {
			return err
		}
		if jsonOut {
			return emit(rows)
		}
		for _, row := range rows {
			fmt.Printf("%s  joystick=%v gripper=%.0f vector=%v\n",
				row.CreatedAt.Format("15:04:05"), row.Joystick, row.Gripper, row.Vector)
		}
		return nil

	case "states":
		rows, err := jour.TaskStates(session)
		if err != nil {
			return err
		}
		if jsonOut {
			return emit(rows)
		}
		for _, row := range rows {
			fmt.Printf("%s  %s\n", row.CreatedAt.Format("15:04:05"), row.State)
		}
		return nil

	case "metrics":
		rows, err := jour.Metrics(session)
		if err != nil {
			return err
		}
		if jsonOut {
			return emit(rows)
		}
		for _, row := range rows {
			fmt.Printf("%s  %s = %.4f\n", row.CreatedAt.Format("15:04:05"), row.Name, row.Value)
		}
		return nil

	default:
		return fmt.Errorf("unknown table %q", table)
	}
}

func emit(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// #endregion tables
