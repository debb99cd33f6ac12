// Command hashkey prints the WRITE_KEY_HASH value for a household key.
//
//	go run ./cmd/hashkey 'our secret'
package main

import (
	"fmt"
	"os"

	"github.com/AnshRaj112/karmnik-backend/pkg/utils"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: hashkey <key>")
		os.Exit(2)
	}

	hash, err := utils.HashSecret(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash failed:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
