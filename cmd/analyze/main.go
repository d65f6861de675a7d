// Command analyze prints quick, human-readable figures about the game presets
// in the project's configs directory. It summarizes board geometry, how much
// of the view is covered by cards, and how long the animations of a perfect
// game, a missed turn and a peek take when played back on a virtual clock.
package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/animation"
	"github.com/wricardo/mcp-training/memorygame/game/config"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// Analysis holds the figures reported for one preset
type Analysis struct {
	ConfigID   string
	Name       string
	ViewWidth  float64
	ViewHeight float64
	// Coverage is the share of the view covered by card faces, 0..1.
	Coverage float64
	// FirstCenter and LastCenter are the centers of cards (0,0) and (3,3).
	FirstCenter engine.Point
	LastCenter  engine.Point
	PerfectGame time.Duration
	MissedTurn  time.Duration
	Peek        time.Duration
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	manager, err := config.NewManager(configDir)
	if err != nil {
		fmt.Printf("Error loading presets: %v\n", err)
		os.Exit(1)
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		fmt.Printf("Error listing presets: %v\n", err)
		os.Exit(1)
	}

	for _, info := range infos {
		fmt.Printf("\n=== Analyzing %s ===\n", info.Filename)
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Printf("Error loading preset: %v\n", err)
			continue
		}
		analysis, err := analyzeConfig(info.ConfigID, cfg)
		if err != nil {
			fmt.Printf("Error analyzing preset: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
}

// analyzeConfig measures a preset by playing scripted turns against an engine
// driven by a virtual timeline
func analyzeConfig(configID string, cfg *engine.GameConfig) (*Analysis, error) {
	e, _, err := newAnalysisEngine(cfg)
	if err != nil {
		return nil, err
	}
	layout := e.Layout()
	w, h := layout.ViewSize()

	a := &Analysis{
		ConfigID:    configID,
		Name:        cfg.Name,
		ViewWidth:   w,
		ViewHeight:  h,
		FirstCenter: layout.CenterOf(0, 0),
		LastCenter:  layout.CenterOf(engine.GridSize-1, engine.GridSize-1),
	}
	if w > 0 && h > 0 {
		a.Coverage = engine.CardCount * layout.CardWidth * layout.CardHeight / (w * h)
	}

	if a.PerfectGame, err = playPerfectGame(cfg); err != nil {
		return nil, err
	}
	if a.MissedTurn, err = playMissedTurn(cfg); err != nil {
		return nil, err
	}
	if a.Peek, err = playPeek(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

func newAnalysisEngine(cfg *engine.GameConfig) (*engine.GameEngine, *animation.Timeline, error) {
	timeline := animation.NewTimeline(cfg.Animation)
	e, err := engine.NewEngine(cfg,
		engine.WithPresenter(timeline),
		engine.WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	return e, timeline, err
}

// tapSettled taps a card and waits for every effect it started
func tapSettled(e *engine.GameEngine, timeline *animation.Timeline, pos engine.Position) {
	e.Tap(pos.X, pos.Y)
	timeline.Settle()
}

func pairsByValue(e *engine.GameEngine) map[int][]engine.Position {
	pairs := make(map[int][]engine.Position, engine.PairCount)
	for x := 0; x < engine.GridSize; x++ {
		for y := 0; y < engine.GridSize; y++ {
			v := e.CardNumberAt(x, y)
			pairs[v] = append(pairs[v], engine.Position{X: x, Y: y})
		}
	}
	return pairs
}

// playPerfectGame matches every pair on the first try
func playPerfectGame(cfg *engine.GameConfig) (time.Duration, error) {
	e, timeline, err := newAnalysisEngine(cfg)
	if err != nil {
		return 0, err
	}

	pairs := pairsByValue(e)
	for value := 1; value <= engine.PairCount; value++ {
		for _, pos := range pairs[value] {
			tapSettled(e, timeline, pos)
		}
	}
	if !e.IsComplete() {
		return 0, fmt.Errorf("perfect game did not complete: %d/%d pairs", e.MatchedCount(), engine.PairCount)
	}
	return timeline.Now(), nil
}

// playMissedTurn flips two cards that do not match and waits for them to
// turn back over
func playMissedTurn(cfg *engine.GameConfig) (time.Duration, error) {
	e, timeline, err := newAnalysisEngine(cfg)
	if err != nil {
		return 0, err
	}

	pairs := pairsByValue(e)
	tapSettled(e, timeline, pairs[1][0])
	tapSettled(e, timeline, pairs[2][0])
	if e.MatchedCount() != 0 {
		return 0, fmt.Errorf("missed turn produced a match")
	}
	return timeline.Now(), nil
}

func playPeek(cfg *engine.GameConfig) (time.Duration, error) {
	e, timeline, err := newAnalysisEngine(cfg)
	if err != nil {
		return 0, err
	}
	if flipped := e.Peek(); flipped != engine.CardCount {
		return 0, fmt.Errorf("peek flipped %d cards, expected %d", flipped, engine.CardCount)
	}
	timeline.Settle()
	return timeline.Now(), nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "View: %g x %g\n", a.ViewWidth, a.ViewHeight)
	fmt.Fprintf(w, "Card centers: (%g, %g) .. (%g, %g)\n", a.FirstCenter.X, a.FirstCenter.Y, a.LastCenter.X, a.LastCenter.Y)
	fmt.Fprintf(w, "Card coverage: %.1f%%\n", a.Coverage*100)
	fmt.Fprintf(w, "Perfect game animations: %v\n", a.PerfectGame)
	fmt.Fprintf(w, "Missed turn: %v\n", a.MissedTurn)
	fmt.Fprintf(w, "Peek: %v\n", a.Peek)

	if a.PerfectGame == 0 {
		fmt.Fprintf(w, "⚠️  No animation delays; every tap resolves immediately\n")
	}
	if a.Coverage < 0.5 {
		fmt.Fprintf(w, "⚠️  WARNING: padding takes up more of the view than the cards\n")
	}
}
