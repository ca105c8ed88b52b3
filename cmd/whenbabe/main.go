// Package main is the device CLI for the event board.
//
// The CLI carries the anonymous device identity: a UUID generated on
// first run and persisted under the user config directory. Every
// invocation re-registers it (registration is set-once server-side)
// and uses the returned token for writes.
//
// Usage:
//
//	whenbabe [-server URL] list
//	whenbabe [-server URL] add -name NAME [-date YYYY-MM-DD]
//	whenbabe [-server URL] edit -id EVENT -name NAME [-date YYYY-MM-DD]
//	whenbabe [-server URL] delete -id EVENT [-owner DEVICE]
//	whenbabe [-server URL] calendar [-year Y] [-month M]
//	whenbabe [-server URL] watch
//	whenbabe whoami
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/saicojavc/When-Babe/internal/client"
	"github.com/saicojavc/When-Babe/internal/identity"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "event board server URL")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: whenbabe [-server URL] <list|add|edit|delete|calendar|watch|whoami> [options]")
		os.Exit(2)
	}

	if err := run(*server, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "whenbabe:", err)
		os.Exit(1)
	}
}

func run(server, command string, args []string) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("locating config directory: %w", err)
	}

	deviceID, created, err := identity.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading device identity: %w", err)
	}
	if created {
		fmt.Fprintf(os.Stderr, "new device identity %s\n", deviceID)
	}

	if command == "whoami" {
		fmt.Println(deviceID)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(server, "")
	token, err := c.Register(ctx, deviceID)
	if err != nil {
		return err
	}
	c.SetToken(token)

	switch command {
	case "list":
		return runList(ctx, c)
	case "add":
		return runAdd(ctx, c, args)
	case "edit":
		return runEdit(ctx, c, args)
	case "delete":
		return runDelete(ctx, c, args, deviceID)
	case "calendar":
		return runCalendar(ctx, c, args)
	case "watch":
		return runWatch(ctx, c)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runList(ctx context.Context, c *client.Client) error {
	events, err := c.ListEvents(ctx)
	if err != nil {
		return err
	}
	printBoard(os.Stdout, events)
	return nil
}

func runAdd(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "event name (required)")
	date := fs.String("date", "", "event date YYYY-MM-DD (default today)")
	fs.Parse(args)

	ev, err := c.CreateEvent(ctx, *name, *date)
	if err != nil {
		return err
	}
	fmt.Printf("added %s  %s  %s\n", ev.EventID, ev.DisplayDate, ev.Name)
	return nil
}

func runEdit(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.String("id", "", "event id (required)")
	name := fs.String("name", "", "new event name (required)")
	date := fs.String("date", "", "new date YYYY-MM-DD (default today)")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("edit: -id is required")
	}

	ev, err := c.UpdateEvent(ctx, *id, *name, *date)
	if err != nil {
		return err
	}
	fmt.Printf("updated %s  %s  %s\n", ev.EventID, ev.DisplayDate, ev.Name)
	return nil
}

func runDelete(ctx context.Context, c *client.Client, args []string, deviceID string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "event id (empty for a legacy entry)")
	owner := fs.String("owner", "", "owner device id (default: you; admin only)")
	fs.Parse(args)

	ownerID := *owner
	if ownerID == "" {
		ownerID = deviceID
	}

	if err := c.DeleteEvent(ctx, ownerID, *id); err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func runCalendar(ctx context.Context, c *client.Client, args []string) error {
	now := time.Now()
	fs := flag.NewFlagSet("calendar", flag.ExitOnError)
	year := fs.Int("year", now.Year(), "year")
	month := fs.Int("month", int(now.Month()), "month (1-12)")
	fs.Parse(args)

	cal, err := c.Calendar(ctx, *year, *month)
	if err != nil {
		return err
	}
	printCalendar(os.Stdout, cal)
	return nil
}

func runWatch(ctx context.Context, c *client.Client) error {
	updates, err := c.Watch(ctx)
	if err != nil {
		return err
	}

	for events := range updates {
		fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
		printBoard(os.Stdout, events)
	}
	// Channel closed: either we cancelled (Ctrl+C) or the server went
	// away. Both are a normal end of watching.
	return nil
}

// printBoard renders the shared list: truncated owner id, server-side
// display date, name. Malformed stored dates arrive already annotated.
func printBoard(w *os.File, events []client.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "(no events)")
		return
	}
	for _, ev := range events {
		fmt.Fprintf(w, "%-8s  %-24s  %s\n", shortID(ev.OwnerID), ev.DisplayDate, ev.Name)
	}
}

// shortID trims a device UUID to its first 8 characters, enough to tell
// owners apart on a small board.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// printCalendar renders the month grid: header row, then weeks, with
// event days marked by an asterisk.
func printCalendar(w *os.File, cal *client.CalendarMonth) {
	fmt.Fprintf(w, "%s %d\n", time.Month(cal.Month.Month), cal.Month.Year)
	for _, d := range cal.Weekdays {
		fmt.Fprintf(w, "%4s", d)
	}
	fmt.Fprintln(w)

	col := 0
	var line strings.Builder
	for i := 0; i < cal.LeadingBlanks; i++ {
		line.WriteString("    ")
		col++
	}
	for _, cell := range cal.Cells {
		mark := " "
		if cell.HasEvents {
			mark = "*"
		}
		line.WriteString(fmt.Sprintf("%3d%s", cell.Day, mark))
		col++
		if col == 7 {
			fmt.Fprintln(w, line.String())
			line.Reset()
			col = 0
		}
	}
	if line.Len() > 0 {
		fmt.Fprintln(w, line.String())
	}
}
