package main

import "github.com/lunemec/eve-ledger/cmd"

func main() {
	cmd.Execute()
}
