package scene

import (
	"encoding/json"
	"io"
)

// RenderJSON encodes s as indented JSON.
func RenderJSON(s *Scene) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteJSON writes s to w as indented JSON followed by a newline.
func WriteJSON(w io.Writer, s *Scene) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
