package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/internal/app"
	"github.com/fastygo/datewheel/usecase"
	"github.com/fastygo/datewheel/usecase/draw"
	"github.com/fastygo/datewheel/usecase/pool"
)

const dateLayout = "2006-01-02"

type message string

// register binds one dispatcher entry per subcommand. loc is the schedule
// time zone, used to read dates given on the command line.
func register(d *usecase.Dispatcher, a *app.App, loc *time.Location) {
	d.RegisterQuery("list", "[query]", func(_ context.Context, args []string) (any, error) {
		if len(args) == 0 {
			return a.Registry.List(), nil
		}
		return a.Registry.Search(strings.Join(args, " "), ""), nil
	})

	d.RegisterCommand("add", "<name> <emoji> [category]", func(ctx context.Context, args []string) (any, error) {
		if len(args) < 2 {
			return nil, usageError("add <name> <emoji> [category]")
		}
		fields := domain.ActivityFields{Name: args[0], Emoji: args[1], Moods: []string{}}
		if len(args) > 2 {
			fields.Category = strings.ToLower(args[2])
		}
		return a.Registry.Create(ctx, fields)
	})

	d.RegisterCommand("remove", "<id>", func(ctx context.Context, args []string) (any, error) {
		if len(args) != 1 {
			return nil, usageError("remove <id>")
		}
		if err := a.Registry.Remove(ctx, args[0]); err != nil {
			return nil, err
		}
		return message("removed " + args[0]), nil
	})

	d.RegisterCommand("reset", "", func(ctx context.Context, _ []string) (any, error) {
		if err := a.Registry.Reset(ctx); err != nil {
			return nil, err
		}
		if err := a.Pool.Refresh(ctx); err != nil {
			return nil, err
		}
		return a.Registry.List(), nil
	})

	d.RegisterQuery("pool", "", func(_ context.Context, _ []string) (any, error) {
		return a.Pool.Members(), nil
	})

	d.RegisterCommand("toggle", "<id>", func(ctx context.Context, args []string) (any, error) {
		if len(args) != 1 {
			return nil, usageError("toggle <id>")
		}
		return a.Pool.Toggle(ctx, args[0])
	})

	d.RegisterCommand("spin", "", func(ctx context.Context, _ []string) (any, error) {
		return a.Engine.Spin(ctx, a.Pool.Members())
	})

	d.RegisterQuery("schedule", "[year month]", func(ctx context.Context, args []string) (any, error) {
		now := time.Now()
		year, month := now.Year(), now.Month()
		if len(args) == 2 {
			y, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, usageError("schedule [year month]")
			}
			m, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, usageError("schedule [year month]")
			}
			year, month = y, time.Month(m)
		} else if len(args) != 0 {
			return nil, usageError("schedule [year month]")
		}
		return a.Scheduler.ScheduleFor(ctx, year, month)
	})

	d.RegisterCommand("pin", "<yyyy-mm-dd> <id>", func(ctx context.Context, args []string) (any, error) {
		if len(args) != 2 {
			return nil, usageError("pin <yyyy-mm-dd> <id>")
		}
		date, err := time.ParseInLocation(dateLayout, args[0], loc)
		if err != nil {
			return nil, usageError("pin <yyyy-mm-dd> <id>")
		}
		return a.Scheduler.Reassign(ctx, date, args[1])
	})

	d.RegisterQuery("history", "[clear]", func(ctx context.Context, args []string) (any, error) {
		if len(args) == 1 && args[0] == "clear" {
			if err := a.History.Clear(ctx); err != nil {
				return nil, err
			}
			return message("history cleared"), nil
		}
		return a.History.List(ctx)
	})
}

func usageError(usage string) error {
	return domain.NewError(domain.ErrCodeInvalid, "usage: datewheel "+usage)
}

// render prints a human-readable form of a command result.
func render(w io.Writer, result any) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch v := result.(type) {
	case message:
		fmt.Fprintln(tw, string(v))
	case []domain.Activity:
		fmt.Fprintln(tw, "ID\t\tNAME\tCATEGORY\tUSED")
		for _, act := range v {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", act.ID, act.Emoji, act.Name, act.Category, act.UsageCount)
		}
	case domain.Activity:
		fmt.Fprintf(tw, "%s\t%s %s\n", v.ID, v.Emoji, v.Name)
	case pool.ToggleResult:
		switch {
		case v.AtCapacity:
			fmt.Fprintf(tw, "wheel is full (%d activities)\n", pool.MaxSize)
		case v.Added:
			fmt.Fprintf(tw, "added, %d on the wheel\n", v.Size)
		case v.Removed:
			fmt.Fprintf(tw, "removed, %d on the wheel\n", v.Size)
		}
		if v.BelowMinimum {
			fmt.Fprintf(tw, "add at least %d activities to spin\n", pool.MinSize)
		}
	case draw.Result:
		fmt.Fprintf(tw, "tonight: %s %s\n", v.Activity.Emoji, v.Activity.Name)
		if v.Activity.Description != "" {
			fmt.Fprintln(tw, v.Activity.Description)
		}
	case []domain.Slot:
		fmt.Fprintln(tw, "DATE\tACTIVITY\tPINNED")
		for _, s := range v {
			name := "-"
			if s.Activity != nil {
				name = s.Activity.Emoji + " " + s.Activity.Name
			}
			fmt.Fprintf(tw, "%s\t%s\t%t\n", s.Date.Format("Mon 2006-01-02 15:04"), name, s.Pinned)
		}
	case domain.ScheduledActivity:
		fmt.Fprintf(tw, "pinned %s to %s\n", v.ActivityID, v.Date.Format("Mon 2006-01-02 15:04"))
	case []domain.SpinHistoryEntry:
		fmt.Fprintln(tw, "WHEN\tACTIVITY")
		for _, e := range v {
			fmt.Fprintf(tw, "%s\t%s\n", time.UnixMilli(e.Timestamp).Format(time.DateTime), e.ActivityID)
		}
	default:
		fmt.Fprintf(tw, "%v\n", v)
	}
}
