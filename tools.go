//go:build tools

package tools

// Tool dependencies tracked here with blank imports so go.mod pins them.
// stringer generates the String methods for alarm.Timeout (go generate ./...).
import (
	_ "golang.org/x/tools/cmd/stringer"
)
