// Package config provides configuration management for the memory match game.
//
// The config package handles:
//   - Loading game presets from JSON files
//   - Configuration validation through engine.ValidateGameConfig
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Presets are stored as JSON files in the configs directory. The file name
// without extension is the config ID used when creating sessions. Each preset
// defines:
//   - Card geometry (card_width, card_height, padding)
//   - The image shown on card backs (back_face)
//   - Effect durations in milliseconds (animation.reveal_ms, hide_ms, fade_ms, peek_ms)
//
// Available Configurations:
//   - default: classic 120x141 cards with 20 points of padding
//   - compact: small cards for narrow screens
//   - relaxed: slow flips and long peeks
//   - instant: zero-length effects, handy for agents
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	gameConfig, err := manager.LoadConfig("compact")
//
//	// Get default configuration
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
//
// When the directory holds no default.json the first valid preset becomes the
// default, and with no valid preset at all the built-in engine default is used.
package config
