package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/cryptonaira/nairadesk/repo"
)

const deskFilename = "desk.yaml"

// Init creates the data directory and writes a desk file holding the
// built-in desk so the operator has something to edit.
type Init struct {
	DataDir string `short:"d" long:"datadir" description:"Directory to store data"`
	Force   bool   `short:"f" long:"force" description:"Overwrite an existing desk file"`
}

// Execute initializes the data directory.
func (x *Init) Execute(args []string) error {
	if x.DataDir == "" {
		x.DataDir = repo.DefaultHomeDir
	}
	if err := os.MkdirAll(x.DataDir, 0700); err != nil {
		return err
	}

	path := filepath.Join(x.DataDir, deskFilename)
	if err := repo.WriteDesk(path, models.DefaultDesk(), x.Force); err != nil {
		return err
	}
	fmt.Printf("Desk file written to %s\nPoint DESK_FILE or --deskfile at it after editing.\n", path)
	return nil
}
