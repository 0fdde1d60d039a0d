package main

import (
	"log"
	"os"

	"github.com/cryptonaira/nairadesk/cmd"
	"github.com/jessevdk/go-flags"
)

func main() {
	parser := flags.NewParser(nil, flags.Default)

	_, err := parser.AddCommand("start",
		"start the exchange desk",
		"The start command connects to Telegram and runs the exchange desk until interrupted.",
		&cmd.Start{})
	if err != nil {
		log.Fatal(err)
	}
	_, err = parser.AddCommand("init",
		"initialize a data directory",
		"The init command creates the data directory and writes an editable desk file.",
		&cmd.Init{})
	if err != nil {
		log.Fatal(err)
	}

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}
