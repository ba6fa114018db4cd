package models

import "fmt"

// GameSettings carries the custom-rule flags a table can declare when a game
// is created. The engine stores them for export and display but none of them
// alter action processing yet.
type GameSettings struct {
	Stacking     bool `json:"stacking"`     // stack draw_two/wild_draw_four onto a pending draw
	SevenZero    bool `json:"sevenZero"`    // 7 swaps hands, 0 rotates all hands
	JumpIn       bool `json:"jumpIn"`       // play an identical card out of turn
	PhysicalMode bool `json:"physicalMode"` // hands are tracked from scans only, never auto-dealt digitally
}

// Update applies the provided settings map onto the receiver. Keys that are
// absent or nil keep their current value.
func (s *GameSettings) Update(newSettings map[string]interface{}) error {
	var ok bool

	assignBool := func(field *bool, key string) error {
		if val, exists := newSettings[key]; exists && val != nil {
			*field, ok = val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
		}
		return nil
	}

	if err := assignBool(&s.Stacking, "stacking"); err != nil {
		return err
	}
	if err := assignBool(&s.SevenZero, "sevenZero"); err != nil {
		return err
	}
	if err := assignBool(&s.JumpIn, "jumpIn"); err != nil {
		return err
	}
	if err := assignBool(&s.PhysicalMode, "physicalMode"); err != nil {
		return err
	}
	return nil
}

// ParseSettings converts a settings map to a GameSettings struct, starting
// from the provided current values.
func ParseSettings(settings map[string]interface{}, current GameSettings) (GameSettings, error) {
	parsed := current
	err := parsed.Update(settings)
	return parsed, err
}
