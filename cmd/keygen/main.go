// AngelaMos | 2026
// main.go

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Dramos02/employee-directory/internal/auth"
)

// keygen writes a fresh ES256 keypair for signing access tokens.
func main() {
	privatePath := flag.String("private", "jwt_private.pem", "private key output path")
	publicPath := flag.String("public", "jwt_public.pem", "public key output path")
	flag.Parse()

	if err := auth.GenerateKeyPair(*privatePath, *publicPath); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s and %s\n", *privatePath, *publicPath)
}
