package settings

import (
	"os"
	"regexp"
	"strings"
)

// substitutionRegex matches environment variables ($NAME), '~', '*', and the
// escapes \$, \~, \* and \\.
var substitutionRegex = regexp.MustCompile(`\\(?P<escaped>[~$*])|\\(?P<escaped_backslash>\\)|(?P<tilde>~)|(?P<star>\*)|(?P<varName>\$[a-zA-Z0-9_]+)`)

// SubstituteString replaces $NAME with the environment variable NAME (empty
// when unset), '~' with the user's home directory and '*' with baseDir. A
// backslash in front of '$', '~', '*' or '\' escapes it.
func SubstituteString(in string, baseDir string) string {
	homeDir, _ := os.UserHomeDir()

	return substitutionRegex.ReplaceAllStringFunc(in, func(match string) string {
		switch {
		case match == `\\`:
			return `\`
		case strings.HasPrefix(match, `\`):
			return string(match[1])
		case match == "~":
			if homeDir != "" {
				return homeDir
			}
			return "~"
		case match == "*":
			return baseDir
		case strings.HasPrefix(match, "$"):
			return os.Getenv(match[1:])
		}
		return match
	})
}
