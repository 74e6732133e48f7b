package output

import (
	"encoding/json"
	"os"
)

// JSONPrinter prints raw JSON output.
type JSONPrinter struct{}

// Print renders v as indented JSON.
func (JSONPrinter) Print(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
