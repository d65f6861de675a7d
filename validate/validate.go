// Command validate provides a small CLI that validates game preset JSON
// files in the ../configs directory (or the directory given as the first
// argument). It checks:
//   - JSON structure and required fields
//   - Card geometry and padding limits
//   - Animation timings
//   - The back face image name
//   - That preset names are unique and a default preset exists
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// DefaultPresetFile is the preset new sessions fall back to
const DefaultPresetFile = "default.json"

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Name   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file and, when it is
// valid, reports the board geometry it produces.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	if config.BackFace == "" {
		config.BackFace = engine.DefaultBackFace
	}
	result.Name = config.Name

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	if config.CardWidth < 2*config.Padding || config.CardHeight < 2*config.Padding {
		result.fail("padding %g leaves cards smaller than the gaps between them", config.Padding)
		return result
	}

	layout := engine.Layout{CardWidth: config.CardWidth, CardHeight: config.CardHeight, Padding: config.Padding}
	width, height := layout.ViewSize()
	anim := config.Animation

	result.info("Name: %s", config.Name)
	result.info("Cards: %gx%g, padding %g", config.CardWidth, config.CardHeight, config.Padding)
	result.info("View: %gx%g", width, height)
	result.info("Back face: %s", config.BackFace)
	result.info("Timings: reveal %dms, hide %dms, fade %dms, peek %dms", anim.RevealMS, anim.HideMS, anim.FadeMS, anim.PeekMS)
	return result
}

// validateAll validates every preset in dir, then checks the set as a whole:
// names must be unique and the default preset must be present.
func validateAll(dir string) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	results := make([]ValidationResult, 0, len(files))
	seen := make(map[string]string)
	hasDefault := false

	for _, file := range files {
		result := validateConfig(file)
		if result.File == DefaultPresetFile {
			hasDefault = true
		}
		if result.Valid {
			key := strings.ToLower(result.Name)
			if other, exists := seen[key]; exists {
				result.fail("Duplicate name %q (also used by %s)", result.Name, other)
			} else {
				seen[key] = result.File
			}
		}
		results = append(results, result)
	}

	if !hasDefault {
		missing := ValidationResult{File: DefaultPresetFile}
		missing.fail("Missing default preset")
		results = append(results, missing)
	}

	return results, nil
}

// main validates every preset, printing a concise report and exiting with
// non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	results, err := validateAll(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
