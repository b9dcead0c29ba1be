// Command hash-generator prints bcrypt hashes for the passwords given on
// the command line. Useful for seeding accounts directly in the database.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/esther-anierobi/bookIT/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	passwords := flag.Args()
	if len(passwords) == 0 {
		fmt.Fprintln(os.Stderr, "usage: hash-generator [-cost N] <password> [password ...]")
		os.Exit(1)
	}

	hasher := auth.NewBcryptHasherWithCost(*cost)

	for _, password := range passwords {
		hash, err := hasher.Hash(password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error hashing %q: %v\n", password, err)
			os.Exit(1)
		}
		fmt.Printf("Password: %s\nHash: %s\n\n", password, hash)
	}
}
