// Command stafftoken mints staff access tokens for the review API, or with
// -bridge prints the bcrypt hash of a chat bridge token.
//
// The signing secret (or bridge token) is read from the terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/staffcli"
)

func main() {
	id := flag.String("id", "", "reviewer id (chat user id)")
	caps := flag.String("caps", "manage_membership,view_applications", "comma separated capabilities")
	ttl := flag.Duration("ttl", 12*time.Hour, "token validity")
	bridge := flag.Bool("bridge", false, "hash a bridge token instead of minting a staff token")
	flag.Parse()

	if *bridge {
		token, err := staffcli.ReadSecret(os.Stderr, "Bridge token")
		if err != nil {
			log.Fatalf("read bridge token: %v", err)
		}
		defer staffcli.Wipe(token)

		hash, err := staffcli.HashBridgeToken(token)
		if err != nil {
			log.Fatalf("hash bridge token: %v", err)
		}
		fmt.Println(hash)
		return
	}

	secret, err := staffcli.ReadSecret(os.Stderr, "Signing secret")
	if err != nil {
		log.Fatalf("read secret: %v", err)
	}
	defer staffcli.Wipe(secret)

	token, err := staffcli.MintToken(secret, *id, *caps, *ttl)
	if err != nil {
		log.Fatalf("mint token: %v", err)
	}
	fmt.Println(token)
}
