// Command generate_password prints a bcrypt hash suitable for seeding user
// rows by hand, for example the development operator account.
//
//	go run scripts/generate_password.go -cost 12 's3cret'
package main

import (
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: generate_password [-cost N] <password>")
	}
	plain := flag.Arg(0)

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), *cost)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(plain)); err != nil {
		log.Fatalf("verify: %v", err)
	}

	fmt.Println(string(hash))
}
