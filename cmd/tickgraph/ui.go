package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
)

const meterWidth = 40

// ui draws the transport and level meter and maps keys to player actions
type ui struct {
	screen tcell.Screen
	player *player
	status string
}

func runUI(ctx context.Context, p *player, ended <-chan struct{}) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	u := &ui{screen: screen, player: p}
	return u.run(ctx, ended)
}

func (u *ui) run(ctx context.Context, ended <-chan struct{}) error {
	ticker := time.NewTicker(33 * time.Millisecond) // ~30 FPS
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-quit:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ended:
			u.status = "ended, press b to restart"

		case ev := <-eventChan:
			if !u.handleInput(ev) {
				return nil
			}

		case <-ticker.C:
			u.draw()
		}
	}
}

func (u *ui) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			u.player.togglePause()
			u.status = ""
		case 'b':
			u.player.bang()
			u.status = "restarted"
		case 'l':
			u.status = fmt.Sprintf("loop %s", onOff(u.player.toggleLoop()))
		case 'r':
			u.status = fmt.Sprintf("reverse %s", onOff(u.player.toggleReverse()))
		case '+', '=':
			u.status = fmt.Sprintf("amp %.2f", u.player.changeAmp(0.05))
		case '-':
			u.status = fmt.Sprintf("amp %.2f", u.player.changeAmp(-0.05))
		}

	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

func (u *ui) draw() {
	st := u.player.snapshot()
	u.screen.Clear()

	title := tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	text := tcell.StyleDefault
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)

	u.print(1, 0, title, "tickgraph")

	transport := "playing"
	switch {
	case st.paused:
		transport = "paused"
	case st.ended:
		transport = "ended"
	}
	u.print(1, 2, text, fmt.Sprintf("%-8s %8.0f / %.0f ms   engine %s   tick %d",
		transport, st.position, st.duration, st.state, st.tick))
	u.print(1, 3, text, fmt.Sprintf("loop %-3s  reverse %-3s  amp %.2f",
		onOff(st.looped), onOff(st.reversed), st.amp))

	u.print(1, 5, text, "peak ")
	u.bar(6, 5, st.peak)
	u.print(1, 6, text, "rms  ")
	u.bar(6, 6, st.rms)

	u.print(1, 8, dim, "space pause  b bang  l loop  r reverse  +/- amp  q quit")
	if u.status != "" {
		u.print(1, 10, text, u.status)
	}
	u.screen.Show()
}

// bar draws a level in [0, 1] colored by headroom
func (u *ui) bar(x, y int, level float64) {
	n := int(min(max(level, 0), 1) * meterWidth)
	for i := range meterWidth {
		style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
		switch {
		case i >= meterWidth*9/10:
			style = tcell.StyleDefault.Foreground(tcell.ColorRed)
		case i >= meterWidth*7/10:
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		}
		ch := '█'
		if i >= n {
			ch = '·'
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}
		u.screen.SetContent(x+i, y, ch, nil, style)
	}
	u.print(x+meterWidth+1, y, tcell.StyleDefault, fmt.Sprintf("%5.2f", level))
}

func (u *ui) print(x, y int, style tcell.Style, s string) {
	for i, r := range []rune(s) {
		u.screen.SetContent(x+i, y, r, nil, style)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
