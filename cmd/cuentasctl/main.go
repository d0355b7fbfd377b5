// cuentasctl: admin CLI for the customer accounts ledger.
package main

import (
	"os"

	"cuentacorriente/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
