// Command spectator watches a running game in the terminal.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pixil98/go-gridgame/internal/display"
	"github.com/pixil98/go-gridgame/internal/observer"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "observer host:port")
	format := flag.String("format", string(observer.FormatJSON), "wire format: json or msgpack")
	width := flag.Int("width", display.DefaultWidth, "wrap width for the legend and scoreboard")
	flag.Parse()

	f, err := observer.ParseFormat(*format)
	if err != nil {
		slog.Error("parsing format", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	v := newViewer(streamURL(*addr, f), f, *width)
	if err := v.Run(ctx); err != nil {
		slog.Error("running spectator", "error", err)
		os.Exit(1)
	}
}
