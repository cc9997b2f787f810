package source

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Note returns a short human description of where a source reads from:
// the path for file sources, host[:port]/path for http and the command plus
// the base name of its first argument for exec. It is empty when the
// settings give nothing to show.
func Note(typ string, with map[string]any) string {
	switch typ {
	case TypeFile:
		if p, ok := with["path"].(string); ok {
			return p
		}
	case TypeHTTP:
		raw, ok := with["url"].(string)
		if !ok {
			return ""
		}

		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}

		return u.Host + u.Path
	case TypeExec:
		cmd, ok := with["cmd"].([]any)
		if !ok || len(cmd) == 0 {
			return ""
		}

		first := fmt.Sprint(cmd[0])
		if len(cmd) > 1 {
			if second := fmt.Sprint(cmd[1]); second != "" {
				return first + " " + filepath.Base(second)
			}
		}

		return first
	}

	return ""
}
