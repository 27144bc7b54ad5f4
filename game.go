package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/olivierh59500/particle-sandbox-go/internal/sandbox"
)

const (
	MinZoom     = 0.1 // Limit zoom out
	TrailLength = 10
	HeatStep    = 10.0
)

// Visual modes cycled with H
const (
	visBodies = iota
	visTrails
	visDensity
	visModes
)

// tool is what a left click creates
type tool struct {
	name     string
	particle *sandbox.ParticleKind
	object   *sandbox.ObjectKind
}

func tools() []tool {
	var out []tool
	for _, k := range sandbox.ParticleKinds() {
		out = append(out, tool{name: k.String(), particle: &k})
	}
	for _, k := range sandbox.ObjectKinds() {
		out = append(out, tool{name: k.String(), object: &k})
	}
	return out
}

// Game is the ebiten frontend. Update turns input into commands and steps
// the world; Draw renders the latest snapshot.
type Game struct {
	world *sandbox.World
	tools []tool
	tool  int

	width, height  int
	VisMode        int
	Zoom           float64
	CamX, CamY     float64 // Camera pan
	PrevMX, PrevMY float64 // Previous mouse position for drag

	grabbing    bool
	drawingFlow bool
	trails      map[uint64][]mgl64.Vec2
	snap        *sandbox.Snapshot
	last        sandbox.Report
}

// NewGame wraps a world for the window frontend
func NewGame(world *sandbox.World) *Game {
	w, h := world.Size()
	return &Game{
		world:  world,
		tools:  tools(),
		width:  int(w),
		height: int(h),
		Zoom:   1.0,
		trails: make(map[uint64][]mgl64.Vec2),
		snap:   world.Snapshot(),
	}
}

// Update is called each tick by Ebitengine
func (g *Game) Update() error {
	g.handleInput()

	g.last = g.world.Step()
	g.snap = g.world.Snapshot()

	if g.VisMode == visTrails {
		g.updateTrails()
	}
	return nil
}

// updateTrails keeps the last TrailLength positions of every live particle
func (g *Game) updateTrails() {
	live := make(map[uint64]bool, len(g.snap.Particles))
	for _, p := range g.snap.Particles {
		live[p.ID] = true
		t := append(g.trails[p.ID], p.Pos)
		if len(t) > TrailLength {
			t = t[1:]
		}
		g.trails[p.ID] = t
	}
	for id := range g.trails {
		if !live[id] {
			delete(g.trails, id)
		}
	}
}

// Draw is called each frame by Ebitengine
func (g *Game) Draw(screen *ebiten.Image) {
	screenWidth := float64(screen.Bounds().Dx())
	screenHeight := float64(screen.Bounds().Dy())

	for _, o := range g.snap.Objects {
		g.drawObject(screen, o)
	}

	switch g.VisMode {
	case visBodies:
		for _, p := range g.snap.Particles {
			sx, sy := g.worldToScreen(p.Pos)
			r := p.Radius * g.Zoom
			if sx < -r || sx > screenWidth+r || sy < -r || sy > screenHeight+r {
				continue
			}
			vector.DrawFilledCircle(screen, float32(sx), float32(sy), float32(r), p.Color, true)
			if p.Grabbed {
				vector.StrokeCircle(screen, float32(sx), float32(sy), float32(r+2), 1, color.White, true)
			}
		}
	case visTrails:
		for _, p := range g.snap.Particles {
			t := g.trails[p.ID]
			for i := 1; i < len(t); i++ {
				// skip the jump across a wrapped edge
				if t[i].Sub(t[i-1]).Len() > g.snap.Width/2 {
					continue
				}
				x0, y0 := g.worldToScreen(t[i-1])
				x1, y1 := g.worldToScreen(t[i])
				vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1, p.Color, true)
			}
		}
	case visDensity:
		g.drawDensity(screen)
	}

	g.drawHUD(screen)
}

func (g *Game) drawObject(screen *ebiten.Image, o sandbox.ObjectState) {
	sx, sy := g.worldToScreen(o.Pos)
	switch o.Kind {
	case sandbox.Rectangle, sandbox.Accelerator, sandbox.Decelerator:
		w, h := o.Size[0]*g.Zoom, o.Size[1]*g.Zoom
		col := o.Color
		if o.Kind != sandbox.Rectangle {
			col.A = 90
		}
		vector.DrawFilledRect(screen, float32(sx-w/2), float32(sy-h/2), float32(w), float32(h), col, true)
	case sandbox.Circle:
		vector.DrawFilledCircle(screen, float32(sx), float32(sy), float32(o.Radius*g.Zoom), o.Color, true)
	case sandbox.GravityWell:
		vector.DrawFilledCircle(screen, float32(sx), float32(sy), float32(o.Radius*g.Zoom), o.Color, true)
		vector.StrokeCircle(screen, float32(sx), float32(sy), float32(o.Radius*g.Zoom*2), 1, o.Color, true)
	case sandbox.BlackHole:
		vector.DrawFilledCircle(screen, float32(sx), float32(sy), float32(o.Radius*g.Zoom*0.1), color.Black, true)
		vector.StrokeCircle(screen, float32(sx), float32(sy), float32(o.Radius*g.Zoom), 1, color.RGBA{120, 60, 200, 255}, true)
	case sandbox.FlowControl:
		for i := 1; i < len(o.Points); i++ {
			x0, y0 := g.worldToScreen(o.Points[i-1])
			x1, y1 := g.worldToScreen(o.Points[i])
			vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 3, o.Color, true)
		}
	}
}

// drawDensity shades HeatStep cells by how many particles they hold
func (g *Game) drawDensity(screen *ebiten.Image) {
	cols := int(math.Ceil(g.snap.Width / HeatStep))
	rows := int(math.Ceil(g.snap.Height / HeatStep))
	if cols <= 0 || rows <= 0 {
		return
	}
	counts := make([]int, cols*rows)
	for _, p := range g.snap.Particles {
		cx, cy := int(p.Pos[0]/HeatStep), int(p.Pos[1]/HeatStep)
		if cx >= 0 && cx < cols && cy >= 0 && cy < rows {
			counts[cy*cols+cx]++
		}
	}
	for i, n := range counts {
		if n == 0 {
			continue
		}
		intensity := uint8(math.Min(float64(n)*60, 255))
		col := color.RGBA{intensity, 0, 255 - intensity, 255}
		sx, sy := g.worldToScreen(mgl64.Vec2{float64(i%cols) * HeatStep, float64(i/cols) * HeatStep})
		vector.DrawFilledRect(screen, float32(sx), float32(sy), float32(HeatStep*g.Zoom), float32(HeatStep*g.Zoom), col, true)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	s := g.world.Settings()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS: %0.1f  particles: %d  objects: %d", g.last.TPS, g.last.Particles, g.last.Objects))

	status := fmt.Sprintf("tool: %s (Tab)", g.tools[g.tool].name)
	if g.world.Paused() {
		status += "  PAUSED"
	}
	text.Draw(screen, status, basicfont.Face7x13, 8, 32, color.RGBA{220, 220, 220, 220})

	toggles := fmt.Sprintf("A aging:%v  C collisions:%v  M merging:%v  W walls:%v",
		s.Toggles.Aging, s.Toggles.Collisions, s.Toggles.Merging, s.Toggles.Walls)
	text.Draw(screen, toggles, basicfont.Face7x13, 8, 48, color.RGBA{180, 180, 200, 180})
}

// Layout follows the window size and resizes the world with it
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.world.Submit(sandbox.ResizeCanvas{Width: float64(outsideWidth), Height: float64(outsideHeight)})
	}
	return outsideWidth, outsideHeight
}

// handleInput processes keyboard and mouse input
func (g *Game) handleInput() {
	s := g.world.Settings()

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.tool = (g.tool + 1) % len(g.tools)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.world.Paused() {
			g.world.Submit(sandbox.Resume{})
		} else {
			g.world.Submit(sandbox.Pause{})
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.world.Submit(sandbox.Reset{})
		g.trails = make(map[uint64][]mgl64.Vec2)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.VisMode = (g.VisMode + 1) % visModes
	}
	toggles := []struct {
		key   ebiten.Key
		name  string
		value bool
	}{
		{ebiten.KeyA, "aging", s.Toggles.Aging},
		{ebiten.KeyC, "collisions", s.Toggles.Collisions},
		{ebiten.KeyM, "merging", s.Toggles.Merging},
		{ebiten.KeyW, "walls", s.Toggles.Walls},
	}
	for _, t := range toggles {
		if inpututil.IsKeyJustPressed(t.key) {
			g.world.Submit(sandbox.UpdateToggle{Name: t.name, Value: !t.value})
		}
	}

	// Zoom
	_, wheelY := ebiten.Wheel()
	g.Zoom += wheelY * 0.1
	if g.Zoom < MinZoom {
		g.Zoom = MinZoom
	}

	// Pan (middle drag)
	mx, my := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) {
		g.CamX -= (float64(mx) - g.PrevMX) / g.Zoom
		g.CamY -= (float64(my) - g.PrevMY) / g.Zoom
	}
	g.PrevMX = float64(mx)
	g.PrevMY = float64(my)

	pt := g.screenToWorld(float64(mx), float64(my))
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		g.world.Submit(sandbox.ToggleWell{Point: pt})
	}
	g.handleMouse(pt)
}

func (g *Game) handleMouse(pt mgl64.Vec2) {
	t := g.tools[g.tool]

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		switch {
		case ebiten.IsKeyPressed(ebiten.KeyShift):
			g.grabbing = true
			g.world.Submit(sandbox.Grab{Point: pt})
		case t.object != nil && *t.object == sandbox.FlowControl:
			g.drawingFlow = true
			g.world.Submit(sandbox.Flow{Stage: sandbox.FlowNew, Point: pt})
		case t.object != nil:
			g.world.Submit(sandbox.SpawnObject{Kind: *t.object, Params: sandbox.ObjectParams{Pos: &pt}})
		default:
			g.world.Submit(sandbox.SpawnParticle{Kind: *t.particle, Params: sandbox.ParticleParams{Pos: &pt}})
		}
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		if g.grabbing {
			g.grabbing = false
			g.world.Submit(sandbox.Release{})
		}
		if g.drawingFlow {
			g.drawingFlow = false
			g.world.Submit(sandbox.Flow{Stage: sandbox.FlowEnd, Point: pt})
		}
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if g.grabbing {
			g.world.Submit(sandbox.MoveGrab{Point: pt})
		}
		if g.drawingFlow {
			g.world.Submit(sandbox.Flow{Stage: sandbox.FlowNext, Point: pt})
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		if cmd := g.deleteAt(pt); cmd != nil {
			g.world.Submit(cmd)
		}
	}
}

// deleteAt targets the body drawn under pt, objects first
func (g *Game) deleteAt(pt mgl64.Vec2) sandbox.Command {
	for i := len(g.snap.Objects) - 1; i >= 0; i-- {
		o := g.snap.Objects[i]
		d := pt.Sub(o.Pos)
		switch o.Kind {
		case sandbox.Rectangle, sandbox.Accelerator, sandbox.Decelerator:
			if math.Abs(d[0]) <= o.Size[0]/2 && math.Abs(d[1]) <= o.Size[1]/2 {
				return sandbox.DeleteObject{Ref: o.ID}
			}
		case sandbox.Circle, sandbox.GravityWell, sandbox.BlackHole:
			if d.Len() <= o.Radius {
				return sandbox.DeleteObject{Ref: o.ID}
			}
		case sandbox.FlowControl:
			for _, q := range o.Points {
				if pt.Sub(q).Len() <= 20 {
					return sandbox.DeleteObject{Ref: o.ID}
				}
			}
		}
	}
	for _, p := range g.snap.Particles {
		if pt.Sub(p.Pos).Len() <= p.Radius {
			return sandbox.DeleteParticle{Ref: p.ID}
		}
	}
	return nil
}

// worldToScreen and screenToWorld for camera
func (g *Game) worldToScreen(w mgl64.Vec2) (float64, float64) {
	return (w[0] - g.CamX) * g.Zoom, (w[1] - g.CamY) * g.Zoom
}

func (g *Game) screenToWorld(sx, sy float64) mgl64.Vec2 {
	return mgl64.Vec2{sx/g.Zoom + g.CamX, sy/g.Zoom + g.CamY}
}
