// Package screenshot finds the screenshot files a test case produced and
// copies them into report storage.
//
// Screenshot files follow the naming convention of the capturing framework:
//
//	<test>_<counter>_<platform>_<browserName>_<version>...png
package screenshot

import (
	"strings"

	"github.com/dkoosis/shotlink/pkg/capability"
)

// globEscaper quotes characters that are literal in case names but special
// to the glob matcher. '*' and '?' keep their wildcard meaning.
var globEscaper = strings.NewReplacer(
	`\`, `\\`, "[", `\[`, "]", `\]`, "{", `\{`, "}", `\}`,
)

// Pattern builds the recursive filename glob for a test's screenshots.
// Absent capabilities are left out:
//
//	Pattern("login_test", {platform: WINDOWS, browserName: chrome, version: 90})
//	  == "**/login_test_*_WINDOWS_chrome_90*png"
//	Pattern("x", {}) == "**/x_*_*png"
func Pattern(base string, caps capability.Capabilities) string {
	var sb strings.Builder
	sb.WriteString("**/")
	sb.WriteString(globEscaper.Replace(base))
	sb.WriteString("_*_")
	if v, ok := caps[capability.KeyPlatform]; ok {
		sb.WriteString(globEscaper.Replace(v))
		sb.WriteByte('_')
	}
	if v, ok := caps[capability.KeyBrowser]; ok {
		sb.WriteString(globEscaper.Replace(v))
		if ver, ok := caps[capability.KeyVersion]; ok {
			sb.WriteByte('_')
			sb.WriteString(globEscaper.Replace(ver))
		}
	}
	sb.WriteString("*png")
	return sb.String()
}
