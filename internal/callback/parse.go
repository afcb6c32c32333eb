package callback

import (
	"fmt"
	"strings"

	"github.com/desertthunder/scanlink/internal/shared"
)

const codeToken = "code="

// ParseRequestLine extracts the authorization code from a request line such as
// "GET /callback?state=xyz&code=4/0Abc HTTP/1.1".
//
// The value is returned verbatim, without percent-decoding. An empty value ("code=") is
// rejected with [shared.ErrParseFailed] like a missing parameter, so a successful parse
// always yields a non-empty code.
func ParseRequestLine(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", fmt.Errorf("%w: malformed request line %q", shared.ErrParseFailed, strings.TrimSpace(line))
	}

	code, ok := extractCode(fields[1])
	switch {
	case !ok:
		return "", fmt.Errorf("%w: no code parameter in %q", shared.ErrParseFailed, fields[1])
	case code == "":
		return "", fmt.Errorf("%w: empty code parameter in %q", shared.ErrParseFailed, fields[1])
	}
	return code, nil
}

// extractCode finds the first '&' segment that is, or ends the path with, a code= token.
// The value may be empty.
func extractCode(target string) (string, bool) {
	for _, part := range strings.Split(target, "&") {
		var value string
		switch {
		case strings.HasPrefix(part, codeToken):
			value = part[len(codeToken):]
		case strings.Contains(part, "?"+codeToken):
			value = part[strings.Index(part, "?"+codeToken)+len(codeToken)+1:]
		default:
			continue
		}

		return value, true
	}
	return "", false
}
