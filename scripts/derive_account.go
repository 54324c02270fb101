// derive_account.go prints the principal and stake account address for a
// hex-encoded private key file.
// Usage: go run scripts/derive_account.go <keyfile> [namespace]
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-stake/pkg/crypto"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_account <keyfile> [namespace]")
		os.Exit(1)
	}
	namespace := "user1"
	if len(os.Args) > 2 {
		namespace = os.Args[2]
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	key, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer key.Zero()

	owner := key.Address()
	acct, bump, ok := crypto.DeriveAccountAddress(namespace, owner)
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(key.PublicKey()))
	fmt.Printf("owner=%s\n", owner)
	if !ok {
		fmt.Fprintln(os.Stderr, "no off-curve account address for this owner")
		os.Exit(1)
	}
	fmt.Printf("account=%s bump=%d namespace=%s\n", acct, bump, namespace)
}
