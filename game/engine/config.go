package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultGameConfig returns the built-in configuration: 120x141 cards with
// 20 points of padding and the classic flip timings.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "Classic",
		Description: "Sixteen cards, eight pairs, classic timing",
		CardWidth:   DefaultCardWidth,
		CardHeight:  DefaultCardHeight,
		Padding:     DefaultPadding,
		BackFace:    DefaultBackFace,
		Animation: AnimationConfig{
			RevealMS: 500,
			HideMS:   500,
			FadeMS:   500,
			PeekMS:   1000,
		},
	}
}

// ValidateGameConfig validates a game configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config cannot be nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	// Validate card geometry
	if config.CardWidth <= 0 || config.CardWidth > MaxCardSize {
		return fmt.Errorf("config validation: card_width must be between 1 and %d, got %g", MaxCardSize, config.CardWidth)
	}
	if config.CardHeight <= 0 || config.CardHeight > MaxCardSize {
		return fmt.Errorf("config validation: card_height must be between 1 and %d, got %g", MaxCardSize, config.CardHeight)
	}
	if config.Padding < 0 || config.Padding > MaxPadding {
		return fmt.Errorf("config validation: padding must be between 0 and %d, got %g", MaxPadding, config.Padding)
	}

	// Validate animation timings
	timings := []struct {
		name  string
		value int
	}{
		{"reveal_ms", config.Animation.RevealMS},
		{"hide_ms", config.Animation.HideMS},
		{"fade_ms", config.Animation.FadeMS},
		{"peek_ms", config.Animation.PeekMS},
	}
	for _, timing := range timings {
		if timing.value < 0 || timing.value > MaxAnimationMillis {
			return fmt.Errorf("config validation: animation.%s must be between 0 and %d, got %d",
				timing.name, MaxAnimationMillis, timing.value)
		}
	}

	if strings.ContainsAny(config.BackFace, `/\`) {
		return fmt.Errorf("config validation: back_face must be an image name, got '%s'", config.BackFace)
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file. Read failures
// are returned as the underlying *fs.PathError.
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseGameConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", filepath.Base(filename), err)
	}
	return config, nil
}

// ParseGameConfig decodes and validates a JSON configuration
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.BackFace == "" {
		config.BackFace = DefaultBackFace
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
