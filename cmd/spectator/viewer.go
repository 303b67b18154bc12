package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/pixil98/go-gridgame/internal/display"
	"github.com/pixil98/go-gridgame/internal/observer"
	"github.com/pixil98/go-gridgame/internal/world"
	"github.com/rivo/tview"
)

type viewer struct {
	target string
	format observer.Format
	width  int

	app    *tview.Application
	board  *tview.TextView
	status *tview.TextView
}

func newViewer(target string, f observer.Format, width int) *viewer {
	v := &viewer{
		target: target,
		format: f,
		width:  width,
		app:    tview.NewApplication(),
		board:  tview.NewTextView().SetDynamicColors(false).SetWrap(false),
		status: tview.NewTextView().SetTextColor(tcell.ColorYellow),
	}
	v.board.SetBorder(true).SetTitle(" gridgame ")
	v.status.SetText(fmt.Sprintf("connecting to %s  (q to quit)", target))

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.board, 0, 1, false).
		AddItem(v.status, 1, 0, false)

	v.app.SetRoot(layout, true).SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
			v.app.Stop()
			return nil
		}
		return ev
	})
	return v
}

// Run draws until the user quits, ctx is cancelled or the stream ends.
func (v *viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		err := stream(ctx, v.target, v.format, v.show)
		v.app.QueueUpdateDraw(func() {
			if err != nil {
				v.status.SetText(fmt.Sprintf("disconnected: %v  (q to quit)", err))
				return
			}
			v.status.SetText("stream closed  (q to quit)")
		})
	}()
	go func() {
		<-ctx.Done()
		v.app.Stop()
	}()

	if err := v.app.Run(); err != nil {
		return err
	}
	cancel()
	return nil
}

func (v *viewer) show(s *world.Snapshot) {
	frame := display.Frame(s, v.width)
	v.app.QueueUpdateDraw(func() {
		v.board.SetText(frame)
		v.status.SetText(fmt.Sprintf("turn %d  %s  (q to quit)", s.Turn, v.target))
	})
}
