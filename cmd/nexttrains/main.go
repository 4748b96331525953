// Command nexttrains prints upcoming departures for a station.
//
//	nexttrains -q kadıköy
//	nexttrains -q kadıköy -direction 2 -count 5 -watch
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/farukkamcici/ibb-transport-sub001/internal/config"
	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
	"github.com/farukkamcici/ibb-transport-sub001/internal/schedule"
)

func main() {
	query := flag.String("q", "", "Station name to search for")
	directionID := flag.Int("direction", 0, "Direction id (defaults to the station's first direction)")
	count := flag.Int("count", 3, "Number of departures to print")
	within := flag.Int("within", schedule.DefaultSoonWindow, "Minutes that count as departing soon")
	watch := flag.Bool("watch", false, "Keep refreshing until interrupted")
	flag.Parse()

	if *query == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Board output goes to stdout, so logs go to stderr and stay quiet
	// unless something breaks.
	logg := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)

	client := metroapi.New(metroapi.Config{
		BaseURL:       cfg.MetroAPIBaseURL,
		StaticBaseURL: cfg.StaticDataBaseURL,
		Timeout:       cfg.RequestTimeout,
	}, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	matches, err := client.SearchStations(ctx, *query)
	if err != nil {
		log.Fatalf("Station search failed: %v", err)
	}
	if len(matches) == 0 {
		log.Fatalf("No station matches %q", *query)
	}

	match := matches[0]
	station := match.Station
	if len(matches) > 1 {
		fmt.Fprintf(os.Stderr, "%d stations match, using %s (%s)\n", len(matches), station.Name, match.LineCode)
	}

	dir := *directionID
	if dir <= 0 {
		if len(station.Directions) == 0 {
			log.Fatalf("Station %s lists no directions, pass -direction", station.Name)
		}
		dir = station.Directions[0].ID
		if len(station.Directions) > 1 {
			fmt.Fprintf(os.Stderr, "directions at %s:", station.Name)
			for _, d := range station.Directions {
				fmt.Fprintf(os.Stderr, " %d=%s", d.ID, d.Name)
			}
			fmt.Fprintln(os.Stderr)
		}
	}
	dirName := fmt.Sprintf("direction %d", dir)
	for _, d := range station.Directions {
		if d.ID == dir {
			dirName = d.Name
			break
		}
	}

	opts := schedule.Options{AutoRefresh: *watch, Enabled: true, Interval: cfg.RefreshInterval}
	watcher := schedule.New(ctx, client, station.ID, dir, opts, logg)
	defer watcher.Stop()

	if *watch {
		fmt.Fprintf(os.Stderr, "refreshing every %s, interrupt to stop\n", opts.Interval)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-watcher.Updates():
			if snap.Err != "" && !*watch {
				log.Fatalf("Schedule fetch failed: %s", snap.Err)
			}
			printBoard(snap, station.Name, match.LineCode, dirName, *count, *within)
			if !*watch {
				return
			}
		}
	}
}

func printBoard(snap schedule.Snapshot, stationName, lineCode, dirName string, count, within int) {
	if snap.Err != "" {
		fmt.Printf("schedule unavailable: %s\n", snap.Err)
		return
	}
	board := snap.Board
	if board == nil || len(board.Arrivals) == 0 {
		fmt.Printf("%s toward %s: no upcoming departures\n", stationName, dirName)
		return
	}

	arrivals := board.Arrivals
	if count > 0 && count < len(arrivals) {
		arrivals = arrivals[:count]
	}

	fmt.Printf("%s toward %s (%s %s, %s)\n",
		stationName, dirName, lineCode, board.Source, board.FetchedAt.Format("15:04:05"))
	for _, a := range arrivals {
		line := fmt.Sprintf("  %3d min  %s", a.RemainingMin, a.Destination)
		if a.TimeOfDay != "" {
			line += fmt.Sprintf("  (%s)", a.TimeOfDay)
		}
		if a.RemainingMin <= within {
			line += "  *"
		}
		fmt.Println(line)
	}
}
