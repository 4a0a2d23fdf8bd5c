package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/cbodonnell/rewind/client/input"
	"github.com/cbodonnell/rewind/pkg/demo"
	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/cbodonnell/rewind/pkg/session"
	"github.com/cbodonnell/rewind/pkg/sim"
	"github.com/cbodonnell/rewind/pkg/version"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	wallColor   = color.RGBA{80, 80, 96, 255}
	crateColor  = color.RGBA{200, 140, 40, 255}
	playerColor = color.RGBA{0, 255, 60, 255}
)

// Game implements ebiten.Game interface, which has Update, Draw and Layout methods.
// The ebiten update loop is the simulation thread.
type Game struct {
	world    *sim.Game[demo.World]
	session  *session.Session
	keyboard *input.KeyboardInputSource
	hotkeys  *input.Hotkeys

	// scene is the last painted frame.
	scene   demo.Scene
	message string
}

func NewGame(bulk bool) (*Game, error) {
	hotkeys := input.DefaultHotkeys()
	g := &Game{
		world:    sim.NewGame(demo.NewWorld(), demo.Systems()...),
		keyboard: input.NewKeyboardInputSource(hotkeys),
		hotkeys:  hotkeys,
	}
	g.world.SetInputSource(g.keyboard)
	g.world.SetPainter(func(state *demo.World, ctx *sim.Context) {
		g.scene = state.Scene(ctx)
	})

	notifier := playback.NotifierFunc(func(snapshot playback.Snapshot) {
		log.Debug("Paused at frame %d with %d bytes of state", snapshot.Frame, len(snapshot.State))
	})
	s, err := session.Attach(g.world, session.Options{
		Notifier: notifier,
		Bulk:     bulk,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach session: %v", err)
	}
	g.session = s
	g.world.Paint()
	return g, nil
}

func (g *Game) Update() error {
	g.keyboard.Poll()
	g.world.InputSource().PollGamepads()

	for _, cmd := range g.hotkeys.JustPressed() {
		if err := g.session.Controller().Execute(cmd); err != nil {
			log.Warn("Command %s failed: %v", cmd, err)
			g.message = err.Error()
			continue
		}
		g.message = ""
	}

	if !g.world.IsPaused() {
		if err := g.world.Step(1000/float64(ebiten.TPS()), sim.StepOptions{}); err != nil {
			log.Error("Failed to step: %v", err)
			g.message = err.Error()
			if err := g.session.Controller().Pause(); err != nil {
				log.Error("Failed to pause after a failed step: %v", err)
			}
		}
	}

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	camera := g.scene.Camera
	zoom := camera.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	for _, rect := range g.scene.Rects {
		c := wallColor
		switch rect.Kind {
		case demo.RectKindCrate:
			c = crateColor
		case demo.RectKindPlayer:
			c = playerColor
		}
		// level coordinates point y up
		x := (rect.X - camera.X) * zoom
		y := float64(ScreenHeight) - (rect.Y-camera.Y+rect.H)*zoom
		vector.DrawFilledRect(screen, float32(x), float32(y), float32(rect.W*zoom), float32(rect.H*zoom), c, false)
	}

	status := g.session.Controller().Status()
	state := "paused"
	if status.Playing {
		state = "playing"
	}
	t := fmt.Sprintf("TPS: %0.2f\nFrame: %d (%s)\nHistory: %d/%d", ebiten.ActualTPS(), status.Frame, state, status.Cursor+1, status.Records)
	if status.TimeTraveled {
		t += "\nTime traveled"
	}
	if status.Bulk {
		t += "\nBulk mode, history disabled"
	}
	t += "\n\nP play/pause  , . step  [ ] jump  Backspace reset  Delete clear"
	if g.message != "" {
		t += "\n\n" + g.message
	}
	ebitenutil.DebugPrint(screen, t)
}

const (
	ScreenWidth  = int(demo.Width)
	ScreenHeight = int(demo.Height)
)

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.world.InputSource().Resize(outsideWidth, outsideHeight)
	return ScreenWidth, ScreenHeight
}

func main() {
	logLevel := flag.String("log-level", "info", "Log level")
	bulk := flag.Bool("bulk", false, "Large state mode, disables history capture and time travel")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting client version %s", version.Get())

	game, err := NewGame(*bulk)
	if err != nil {
		panic(fmt.Sprintf("Failed to create game: %v", err))
	}
	defer game.session.Detach()

	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle("Rewind")
	if err := ebiten.RunGame(game); err != nil {
		panic(fmt.Sprintf("Failed to run game: %v", err))
	}
}
