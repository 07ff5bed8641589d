package cli

import (
	"encoding/json"
	"io"
)

// printJSON writes v as indented JSON. HTML characters stay literal since
// labels and data are shown verbatim.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

type result struct {
	OK bool `json:"ok"`
}

func printOK(w io.Writer) error {
	return printJSON(w, result{OK: true})
}
