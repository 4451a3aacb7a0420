// Package l10n translates the user-facing messages of the configurator
// command. Messages without a translation are returned unchanged.
package l10n

import (
	"fmt"

	"github.com/snapcore/go-gettext"
)

var domain = gettext.TextDomain{Name: "configurator"}
var locale = domain.UserLocale()

// T localizes a message and formats it with args.
func T(msg string, args ...any) string {
	translation := locale.Gettext(msg)
	if len(args) > 0 {
		translation = fmt.Sprintf(translation, args...)
	}
	return translation
}

// TN localizes a message with a plural form chosen by n. The count is
// available to the format as the first argument.
func TN(singular, plural string, n int, args ...any) string {
	translation := locale.NGettext(singular, plural, uint32(n))
	return fmt.Sprintf(translation, append([]any{n}, args...)...)
}
