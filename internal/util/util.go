// Package util provides small formatting helpers shared by the CLI and the
// status monitor.
package util

import (
	"strconv"
	"strings"

	"github.com/spatialhue/lightcontrol/pkg/core"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FormatTarget builds a display string for a record binding.
// Format: "light: Lamp", "group: Kitchen" or "unbound".
func FormatTarget(kind core.ControlKind, name string) string {
	if kind == core.KindNone || name == "" {
		return "unbound"
	}
	return kind.String() + ": " + name
}

// FormatColor renders a color as "hue/sat/bri", or "-" when nil.
func FormatColor(c *core.Color) string {
	if c == nil {
		return "-"
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(c.Hue))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(c.Saturation))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(c.Brightness))
	return b.String()
}

// FormatPower renders an on/off flag.
func FormatPower(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// ShortID returns the first block of a uuid string for compact listings.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
