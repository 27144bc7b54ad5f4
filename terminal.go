package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/olivierh59500/particle-sandbox-go/internal/sandbox"
)

// World units covered by one terminal cell. Cells are about twice as tall
// as they are wide.
const (
	cellWidth  = 10.0
	cellHeight = 20.0
)

var particleRunes = map[sandbox.ParticleKind]rune{
	sandbox.Plain:     '•',
	sandbox.Attractor: '+',
	sandbox.Repulser:  '-',
	sandbox.Charged:   '±',
	sandbox.Merger:    'o',
}

var objectRunes = map[sandbox.ObjectKind]rune{
	sandbox.Rectangle:   '█',
	sandbox.Circle:      '█',
	sandbox.GravityWell: '◎',
	sandbox.BlackHole:   '@',
	sandbox.Accelerator: '»',
	sandbox.Decelerator: '«',
	sandbox.FlowControl: '~',
}

// terminal renders runner snapshots on a tcell screen. The bottom row is the
// status line.
type terminal struct {
	screen tcell.Screen
	runner *sandbox.Runner
	kind   sandbox.ParticleKind
	paused bool
	width  int
	height int
}

func runTerminal(world *sandbox.World, tps int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	t := &terminal{screen: screen, runner: sandbox.NewRunner(world, tps)}
	t.resize()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go t.runner.Run(ctx)

	eventChan := make(chan tcell.Event, 100)
	go pollEvents(screen.PollEvent, eventChan, ctx.Done())

	for {
		select {
		case ev := <-eventChan:
			if !t.handleInput(ev) {
				return nil
			}
		case snap := <-t.runner.Snapshots():
			t.draw(snap)
		}
	}
}

// pollEvents forwards events until poll returns nil or done closes
func pollEvents(poll func() tcell.Event, events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := poll()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// resize maps the world onto the current cell grid
func (t *terminal) resize() {
	t.width, t.height = t.screen.Size()
	rows := t.height - 1
	if t.width < 1 || rows < 1 {
		return
	}
	t.runner.Submit(sandbox.ResizeCanvas{Width: float64(t.width) * cellWidth, Height: float64(rows) * cellHeight})
}

func (t *terminal) toWorld(x, y int) mgl64.Vec2 {
	return mgl64.Vec2{(float64(x) + 0.5) * cellWidth, (float64(y) + 0.5) * cellHeight}
}

func (t *terminal) toCell(p mgl64.Vec2) (int, int) {
	return int(p[0] / cellWidth), int(p[1] / cellHeight)
}

func (t *terminal) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch r := ev.Rune(); {
		case r == 'q':
			return false
		case r == ' ':
			t.paused = !t.paused
			if t.paused {
				t.runner.Submit(sandbox.Pause{})
			} else {
				t.runner.Submit(sandbox.Resume{})
			}
		case r == 'r':
			t.runner.Submit(sandbox.Reset{})
		case r >= '1' && r <= '9':
			if k := int(r - '1'); k < len(sandbox.ParticleKinds()) {
				t.kind = sandbox.ParticleKind(k)
			}
		}

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			pt := t.toWorld(x, y)
			t.runner.Submit(sandbox.SpawnParticle{Kind: t.kind, Params: sandbox.ParticleParams{Pos: &pt}})
		}

	case *tcell.EventResize:
		t.resize()
		t.screen.Sync()
	}
	return true
}

func (t *terminal) draw(snap *sandbox.Snapshot) {
	t.screen.Clear()

	for _, o := range snap.Objects {
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(o.Color.R), int32(o.Color.G), int32(o.Color.B)))
		r := objectRunes[o.Kind]
		switch o.Kind {
		case sandbox.Rectangle, sandbox.Accelerator, sandbox.Decelerator:
			x0, y0 := t.toCell(o.Pos.Sub(o.Size.Mul(0.5)))
			x1, y1 := t.toCell(o.Pos.Add(o.Size.Mul(0.5)))
			x0, y0 = max(x0, 0), max(y0, 0)
			x1, y1 = min(x1, t.width-1), min(y1, t.height-1)
			for x := x0; x <= x1; x++ {
				for y := y0; y <= y1; y++ {
					t.set(x, y, r, style)
				}
			}
		case sandbox.FlowControl:
			for _, p := range o.Points {
				x, y := t.toCell(p)
				t.set(x, y, r, style)
			}
		default:
			x, y := t.toCell(o.Pos)
			t.set(x, y, r, style)
		}
	}

	for _, p := range snap.Particles {
		x, y := t.toCell(p.Pos)
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(p.Color.R), int32(p.Color.G), int32(p.Color.B)))
		t.set(x, y, particleRunes[p.Kind], style)
	}

	status := fmt.Sprintf(" %s  particles:%d objects:%d tps:%.0f  [1-5 kind, space pause, r reset, q quit]",
		t.kind, len(snap.Particles), len(snap.Objects), snap.TPS)
	if snap.Paused {
		status += "  PAUSED"
	}
	for i, r := range status {
		t.set(i, t.height-1, r, tcell.StyleDefault.Reverse(true))
	}

	t.screen.Show()
}

func (t *terminal) set(x, y int, r rune, style tcell.Style) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return
	}
	t.screen.SetContent(x, y, r, nil, style)
}
