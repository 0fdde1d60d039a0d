package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cryptonaira/nairadesk/core"
	"github.com/cryptonaira/nairadesk/repo"
	"github.com/cryptonaira/nairadesk/version"
	"github.com/fatih/color"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("CMD")

// Start is the main entry point for nairadesk. The options to this
// command are the same as the desk config options.
type Start struct {
	repo.Config
}

// Execute starts the desk and blocks until it is interrupted.
func (x *Start) Execute(args []string) error {
	cfg, err := repo.LoadConfig()
	if err != nil {
		return err
	}

	n, err := core.NewNode(context.Background(), cfg)
	if err != nil {
		return err
	}
	printSplashScreen()
	log.Infof("Listening for HTTP requests on port %d", cfg.Port)
	n.Start()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info("nairadesk shutting down...")
	if err := n.Stop(); err != nil {
		log.Errorf("Error during shutdown: %s", err)
		os.Exit(1)
	}
	return nil
}

func printSplashScreen() {
	green := color.New(color.FgGreen)
	white := color.New(color.FgWhite)

	for i, l := range []string{
		`  _   _       _`,
		`            ____            _`,
		` | \ | | __ _(_)_ __ __ _`,
		`  |  _ \  ___  ___| | __`,
		` |  \| |/ _' | | '__/ _' |`,
		` | | | |/ _ \/ __| |/ /`,
		` | |\  | (_| | | | | (_| |`,
		` | |_| |  __/\__ \   <`,
		` |_| \_|\__,_|_|_|  \__,_|`,
		` |____/ \___||___/_|\_\`,
	} {
		if i%2 == 0 {
			if _, err := green.Print(l); err != nil {
				log.Debug(err)
				return
			}
			continue
		}
		if _, err := white.Println(l); err != nil {
			log.Debug(err)
			return
		}
	}

	green.DisableColor()
	white.DisableColor()
	fmt.Println("")
	fmt.Printf("\nnairadesk v%s\n", version.String())
}
