// Command autoplay plays a memory match session through the REST API. It
// remembers every card it sees, matches known pairs first and explores unseen
// cards otherwise, settling animations after every tap.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// Summary describes a finished run
type Summary struct {
	SessionID string
	Taps      int
	Complete  bool
	Pairs     int
}

func main() {
	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "Play a memory match session through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("GAME_URL")},
			&cli.StringFlag{Name: "config", Usage: "Preset to create the session from"},
			&cli.StringFlag{Name: "session", Usage: "Play an existing session by ID"},
			&cli.BoolFlag{Name: "reset", Usage: "Reshuffle before playing"},
			&cli.BoolFlag{Name: "peek", Usage: "Peek once before the first tap"},
			&cli.IntFlag{Name: "max-taps", Value: 200, Usage: "Give up after this many taps"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between taps"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if cmd.Bool("v") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

			summary, err := play(ctx, NewClient(cmd.String("url")), playOptions{
				ConfigID:  cmd.String("config"),
				SessionID: cmd.String("session"),
				Reset:     cmd.Bool("reset"),
				Peek:      cmd.Bool("peek"),
				MaxTaps:   cmd.Int("max-taps"),
				Delay:     cmd.Duration("delay"),
			})
			if err != nil {
				return err
			}
			if !summary.Complete {
				return fmt.Errorf("gave up after %d taps with %d/%d pairs", summary.Taps, summary.Pairs, engine.PairCount)
			}
			log.Info().Str("session", summary.SessionID).Int("taps", summary.Taps).Msg("🎉 all pairs found")
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("autoplay failed")
	}
}

type playOptions struct {
	ConfigID  string
	SessionID string
	Reset     bool
	Peek      bool
	MaxTaps   int
	Delay     time.Duration
}

// play runs one game to completion or until MaxTaps is reached
func play(ctx context.Context, client *Client, opts playOptions) (*Summary, error) {
	var (
		state *engine.GameState
		err   error
	)
	if opts.SessionID != "" {
		state, err = client.Resume(ctx, opts.SessionID)
		if err != nil {
			return nil, err
		}
		log.Info().Str("session", client.SessionID()).Msg("🔄 resumed session")
	} else {
		state, err = client.CreateSession(ctx, opts.ConfigID)
		if err != nil {
			return nil, err
		}
		log.Info().Str("session", client.SessionID()).Str("config", state.ConfigName).Msg("✨ session created")
	}

	if opts.Reset {
		result, err := client.Reset(ctx)
		if err != nil {
			return nil, err
		}
		state = result.GameState
	}

	strategy := NewMemoryStrategy()

	// Cards still animating from an earlier client must settle first
	settled, err := client.Settle(ctx)
	if err != nil {
		return nil, err
	}
	state = settled.GameState
	strategy.Observe(state)

	if opts.Peek {
		result, err := client.Peek(ctx)
		if err != nil {
			return nil, err
		}
		strategy.Observe(result.GameState)
		if state, err = settle(ctx, client, strategy); err != nil {
			return nil, err
		}
		log.Debug().Int("known", strategy.Known()).Msg("peeked")
	}

	summary := &Summary{SessionID: client.SessionID()}
	for !state.Complete && summary.Taps < opts.MaxTaps {
		pos, ok := strategy.NextTap(state)
		if !ok {
			log.Warn().Msg("⚠️  no card can be tapped")
			break
		}

		result, err := client.Tap(ctx, pos)
		if err != nil {
			return nil, err
		}
		summary.Taps++
		strategy.Observe(result.GameState)
		if result.Tap != nil {
			strategy.Remember(pos, result.Tap.Value)
			log.Debug().
				Int("x", pos.X).Int("y", pos.Y).
				Int("value", result.Tap.Value).
				Str("outcome", string(result.Tap.Outcome)).
				Msg("tap")
		}

		if state, err = settle(ctx, client, strategy); err != nil {
			return nil, err
		}

		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	summary.Complete = state.Complete
	summary.Pairs = state.MatchedCount / 2
	return summary, nil
}

func settle(ctx context.Context, client *Client, strategy *MemoryStrategy) (*engine.GameState, error) {
	result, err := client.Settle(ctx)
	if err != nil {
		return nil, err
	}
	strategy.Observe(result.GameState)
	return result.GameState, nil
}
