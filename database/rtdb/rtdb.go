// Package rtdb implements database.Store on top of a Firebase Realtime
// Database. Paths map one to one onto database references.
package rtdb

import (
	"bytes"
	"context"
	"encoding/json"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/cryptonaira/nairadesk/database"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

var log = logging.MustGetLogger("RTDB")

// DB is a database.Store backed by a Firebase Realtime Database.
type DB struct {
	client *db.Client
}

var _ database.Store = (*DB)(nil)

// Open connects to the database at databaseURL using the service account
// credentials JSON and checks that the root is reachable.
func Open(ctx context.Context, databaseURL string, credentials []byte) (*DB, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, option.WithCredentialsJSON(credentials))
	if err != nil {
		return nil, errors.Wrap(err, "initialize firebase")
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initialize realtime database")
	}

	var root map[string]bool
	if err := client.NewRef("/").GetShallow(ctx, &root); err != nil {
		return nil, errors.Wrap(err, "connect to realtime database")
	}
	log.Infof("Connected to realtime database (%d top level keys)", len(root))

	return &DB{client: client}, nil
}

// Write sets the value at path.
func (d *DB) Write(ctx context.Context, p string, doc interface{}) error {
	return d.client.NewRef(database.CleanPath(p)).Set(ctx, doc)
}

// Read decodes the value at path into out. The realtime database
// reports a missing value as JSON null.
func (d *DB) Read(ctx context.Context, p string, out interface{}) error {
	var raw json.RawMessage
	if err := d.client.NewRef(database.CleanPath(p)).Get(ctx, &raw); err != nil {
		return err
	}
	return decodeValue(raw, out)
}

// decodeValue maps an empty or null value to database.ErrNotFound and
// decodes anything else into out.
func decodeValue(raw json.RawMessage, out interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return database.ErrNotFound
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decode value")
}

// Close is a no-op. The client holds no resources that need releasing.
func (d *DB) Close() error {
	return nil
}
