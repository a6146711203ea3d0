package waybar

import (
	"encoding/json"
	"io"
)

// Classes understood by the waybar style sheet.
const (
	ClassCrypto  = "crypto"
	ClassPartial = "partial"
	ClassWarning = "warning"
	ClassEmpty   = "empty"
	ClassError   = "error"
)

// Record is a single custom module update, as read by waybar when the
// module has return-type set to json.
type Record struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

// Write encodes r as a single line of JSON. HTML escaping is disabled so
// that symbols reach waybar as they are.
func Write(w io.Writer, r Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}
