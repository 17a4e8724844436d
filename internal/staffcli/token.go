package staffcli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/server/auth"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// ReadSecret prints prompt to w and reads a value from the terminal without
// echo. The caller should wipe the result when done.
func ReadSecret(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, errors.New("empty input")
	}
	return secret, nil
}

// MintToken issues a staff access token for reviewerID with the named
// capabilities (comma separated).
func MintToken(secret []byte, reviewerID, capabilities string, validity time.Duration) (string, error) {
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return "", errors.New("reviewer id is required")
	}
	var names []string
	for _, n := range strings.Split(capabilities, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	caps, err := models.ParseCapabilities(names)
	if err != nil {
		return "", err
	}
	return auth.GenerateToken(models.Reviewer{ID: reviewerID, Capabilities: caps}, secret, validity)
}

// HashBridgeToken returns the bcrypt hash to configure as the bridge token
// hash on the server.
func HashBridgeToken(token []byte) (string, error) {
	h, err := bcrypt.GenerateFromPassword(token, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Wipe zeroes b.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
