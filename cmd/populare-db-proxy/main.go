// Command populare-db-proxy serves the Populare posts database over GraphQL.
package main

import (
	"context"
	"os"

	"github.com/populare/dbproxy/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
