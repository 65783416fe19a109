package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/interview-scheduler/internal/observability"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/spf13/cobra"
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Compute free interview slots for a day offline",
	Long: `Lists the working-hour slots of --date that do not overlap any --busy
interval. Busy intervals are HH:MM-HH:MM on the same day, or two RFC 3339
timestamps joined by "/".`,
	Example: `  scheduler slots --date 2024-06-03 --duration 60 --busy 10:00-10:30 --busy 14:00-15:00`,
	RunE:    runSlots,
}

var (
	slotsDate     string
	slotsDuration int
	slotsBusy     []string
	slotsTZ       string
)

func init() {
	slotsCmd.Flags().StringVar(&slotsDate, "date", "", "Day to compute, YYYY-MM-DD (required)")
	slotsCmd.Flags().IntVar(&slotsDuration, "duration", scheduling.DefaultDurationMinutes, "Interview length in minutes")
	slotsCmd.Flags().StringArrayVar(&slotsBusy, "busy", nil, "Busy interval (repeatable)")
	slotsCmd.Flags().StringVar(&slotsTZ, "tz", "UTC", "IANA time zone the day is interpreted in")

	if err := slotsCmd.MarkFlagRequired("date"); err != nil {
		panic(fmt.Sprintf("failed to mark date flag as required: %v", err))
	}
	rootCmd.AddCommand(slotsCmd)
}

func runSlots(cmd *cobra.Command, _ []string) error {
	loc, err := time.LoadLocation(slotsTZ)
	if err != nil {
		return fmt.Errorf("unknown time zone %q: %w", slotsTZ, err)
	}
	date, err := time.ParseInLocation(time.DateOnly, slotsDate, loc)
	if err != nil {
		return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", slotsDate)
	}
	if slotsDuration <= 0 {
		return fmt.Errorf("--duration must be positive")
	}

	busy := make([]scheduling.Interval, 0, len(slotsBusy))
	for _, value := range slotsBusy {
		iv, err := parseBusy(date, value)
		if err != nil {
			return err
		}
		busy = append(busy, iv)
	}

	slots := scheduling.GenerateSlots(date, slotsDuration, busy)
	observability.NewPrinter(cmd.OutOrStdout()).PrintSlots(date, slotsDuration, slots)
	return nil
}

// parseBusy reads one --busy value relative to date.
func parseBusy(date time.Time, value string) (scheduling.Interval, error) {
	var iv scheduling.Interval
	if start, end, ok := strings.Cut(value, "/"); ok {
		s, err := time.Parse(time.RFC3339, strings.TrimSpace(start))
		if err != nil {
			return iv, fmt.Errorf("invalid busy start %q: %w", start, err)
		}
		e, err := time.Parse(time.RFC3339, strings.TrimSpace(end))
		if err != nil {
			return iv, fmt.Errorf("invalid busy end %q: %w", end, err)
		}
		iv = scheduling.Interval{Start: s, End: e}
	} else {
		start, end, ok := strings.Cut(value, "-")
		if !ok {
			return iv, fmt.Errorf("invalid busy interval %q: expected HH:MM-HH:MM", value)
		}
		s, err := clockOn(date, start)
		if err != nil {
			return iv, err
		}
		e, err := clockOn(date, end)
		if err != nil {
			return iv, err
		}
		iv = scheduling.Interval{Start: s, End: e}
	}

	if !iv.Valid() {
		return iv, fmt.Errorf("busy interval %q ends before it starts", value)
	}
	return iv, nil
}

func clockOn(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
