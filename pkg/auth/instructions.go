package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide explains when and how to create an upstream access token
func ShowTokenGuide(w io.Writer, host string) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "UPSTREAM ACCESS TOKEN")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The public exercise dataset needs no token. A token is only useful when:")
	fmt.Fprintln(w, "   - the upstream is a private mirror of the dataset")
	fmt.Fprintln(w, "   - anonymous requests to the raw content host are being throttled")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "The token is sent as 'Authorization: token <value>' to %s only.\n", host)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "For GitHub hosted mirrors:")
	fmt.Fprintln(w, "   1. Open https://github.com/settings/tokens")
	fmt.Fprintln(w, "   2. Create a fine-grained token with read-only 'Contents' access")
	fmt.Fprintln(w, "   3. Paste it at the prompt below")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "The token is kept in the system keyring when available, otherwise in an\n")
	fmt.Fprintf(w, "encrypted file. %s overrides any stored token.\n", TokenEnvVar)
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
}
