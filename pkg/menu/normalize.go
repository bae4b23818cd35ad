package menu

import "strings"

// placeholders mark an empty cell in the printed table
var placeholders = map[string]bool{
	"-": true,
	"–": true, // en dash
	"—": true, // em dash
}

// NormalizeCell collapses whitespace runs, trims the ends and maps placeholder
// dashes to the empty string
func NormalizeCell(raw string) string {
	cell := strings.Join(strings.Fields(raw), " ")
	if placeholders[cell] {
		return ""
	}
	return cell
}
