package macro

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/gowebpki/jcs"
)

// On-disk shapes. Field order matches the file format so saved files stay
// stable under diff.

type fileMacro struct {
	Sections      []fileSection `json:"sections"`
	DelaysBetween []int         `json:"delays_between"`
}

type fileSection struct {
	Name  string            `json:"name"`
	Steps []json.RawMessage `json:"steps"`
}

type fileDelay struct {
	Type  string `json:"type"`
	Delay int    `json:"delay"`
	Unit  Unit   `json:"unit"`
}

type fileKey struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

type fileMouse struct {
	Type   string `json:"type"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Button Button `json:"button"`
}

// loose form used when reading, numbers may have been written as floats
// by hand or by older tools.
type looseStep struct {
	Type   string   `json:"type"`
	Delay  *float64 `json:"delay"`
	Unit   Unit     `json:"unit"`
	Key    string   `json:"key"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Button Button   `json:"button"`
}

type looseMacro struct {
	Sections []struct {
		Name  string            `json:"name"`
		Steps []json.RawMessage `json:"steps"`
	} `json:"sections"`
	DelaysBetween []float64 `json:"delays_between"`
}

// MarshalStep encodes one step in its file form.
func MarshalStep(s Step) (json.RawMessage, error) {
	switch v := s.(type) {
	case Delay:
		unit := v.Unit
		if unit == "" {
			unit = UnitMillis
		}
		return json.Marshal(fileDelay{Type: v.Type(), Delay: v.Amount, Unit: unit})
	case KeyPress:
		return json.Marshal(fileKey{Type: v.Type(), Key: v.Key})
	case KeyRelease:
		return json.Marshal(fileKey{Type: v.Type(), Key: v.Key})
	case MousePress:
		return json.Marshal(fileMouse{Type: v.Type(), X: v.X, Y: v.Y, Button: v.Button})
	case MouseRelease:
		return json.Marshal(fileMouse{Type: v.Type(), X: v.X, Y: v.Y, Button: v.Button})
	case Unknown:
		if len(v.Raw) == 0 {
			return json.Marshal(map[string]string{"type": v.Tag})
		}
		return v.Raw, nil
	default:
		return nil, fmt.Errorf("unsupported step %T", s)
	}
}

// UnmarshalStep decodes one step. An unrecognised type tag yields Unknown
// rather than an error.
func UnmarshalStep(data []byte) (Step, error) {
	var ls looseStep
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("decode step: %w", err)
	}
	switch ls.Type {
	case "delay":
		amount := 0
		if ls.Delay != nil {
			amount = clampInt(*ls.Delay, 0, math.MaxInt32)
		}
		unit := ls.Unit
		if unit == "" {
			unit = UnitMillis
		}
		return Delay{Amount: amount, Unit: unit}, nil
	case "press":
		return KeyPress{Key: ls.Key}, nil
	case "release":
		return KeyRelease{Key: ls.Key}, nil
	case "mouse_press":
		return MousePress{X: coord(ls.X), Y: coord(ls.Y), Button: ls.Button}, nil
	case "mouse_release":
		return MouseRelease{X: coord(ls.X), Y: coord(ls.Y), Button: ls.Button}, nil
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return Unknown{Tag: ls.Type, Raw: raw}, nil
	}
}

// Encode serialises m in the canonical sectioned format.
func Encode(m Macro) ([]byte, error) {
	m.EnsureGaps()
	fm := fileMacro{
		Sections:      make([]fileSection, len(m.Sections)),
		DelaysBetween: make([]int, len(m.Gaps)),
	}
	copy(fm.DelaysBetween, m.Gaps)
	for i, s := range m.Sections {
		steps := make([]json.RawMessage, len(s.Steps))
		for j, st := range s.Steps {
			raw, err := MarshalStep(st)
			if err != nil {
				return nil, fmt.Errorf("section %d step %d: %w", i, j, err)
			}
			steps[j] = raw
		}
		fm.Sections[i] = fileSection{Name: s.Name, Steps: steps}
	}
	return json.MarshalIndent(fm, "", "  ")
}

// Decode parses a macro file. A bare JSON array is the legacy single-list
// format and becomes one unnamed section with no gaps. Missing gaps are
// zero-filled and the gap count is always reconciled with the sections.
func Decode(data []byte) (Macro, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Macro{}, fmt.Errorf("decode legacy macro: %w", err)
		}
		steps, err := decodeSteps(raw)
		if err != nil {
			return Macro{}, err
		}
		return Macro{Sections: []Section{{Name: "", Steps: steps}}, Gaps: []int{}}, nil
	}

	var lm looseMacro
	if err := json.Unmarshal(trimmed, &lm); err != nil {
		return Macro{}, fmt.Errorf("decode macro: %w", err)
	}
	m := Macro{
		Sections: make([]Section, 0, len(lm.Sections)),
		Gaps:     make([]int, 0, len(lm.DelaysBetween)),
	}
	for i, s := range lm.Sections {
		steps, err := decodeSteps(s.Steps)
		if err != nil {
			return Macro{}, fmt.Errorf("section %d: %w", i, err)
		}
		m.Sections = append(m.Sections, Section{Name: s.Name, Steps: steps})
	}
	for _, g := range lm.DelaysBetween {
		m.Gaps = append(m.Gaps, clampInt(g, 0, math.MaxInt32))
	}
	m.EnsureGaps()
	return m, nil
}

// clampInt truncates f toward zero and limits it to [lo, hi]. NaN becomes lo.
func clampInt(f float64, lo, hi int) int {
	switch {
	case math.IsNaN(f) || f <= float64(lo):
		return lo
	case f >= float64(hi):
		return hi
	}
	return int(f)
}

func coord(f float64) int {
	return clampInt(f, math.MinInt32, math.MaxInt32)
}

func decodeSteps(raw []json.RawMessage) ([]Step, error) {
	steps := make([]Step, 0, len(raw))
	for i, r := range raw {
		st, err := UnmarshalStep(r)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// Fingerprint returns a hex SHA-256 digest of the canonical (RFC 8785) JSON
// form of m. Two macros with equal structure have equal fingerprints
// regardless of formatting.
func Fingerprint(m Macro) (string, error) {
	data, err := Encode(m)
	if err != nil {
		return "", err
	}
	return FingerprintBytes(data)
}

// FingerprintBytes canonicalises an encoded macro and hashes it.
func FingerprintBytes(data []byte) (string, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalize macro: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
