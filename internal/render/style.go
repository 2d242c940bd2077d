package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

var errStyleNotArray = errors.New("map style must be a JSON array of style rules")

// ReadStyle reads a bundled map style definition.
func ReadStyle(path string) (json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map style %q: %w", path, err)
	}

	var rules []json.RawMessage
	if err := json.Unmarshal(b, &rules); err != nil {
		return nil, fmt.Errorf("parse map style %q: %w", path, errors.Join(errStyleNotArray, err))
	}
	return json.RawMessage(b), nil
}

// LoadStyle is ReadStyle for startup: failures are logged and the map
// keeps its default styling (nil).
func LoadStyle(path string, logger *zap.Logger) json.RawMessage {
	if path == "" {
		return nil
	}
	style, err := ReadStyle(path)
	if err != nil {
		logger.Warn("map style not applied, using default styling", zap.Error(err))
		return nil
	}
	return style
}
