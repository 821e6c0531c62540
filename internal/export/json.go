package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes the payload as indented JSON.
func WriteJSON(w io.Writer, p *Payload) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
