package sqlstore

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/cryptonaira/nairadesk/database"
	"github.com/cryptonaira/nairadesk/models"
)

func TestDB_WriteAndRead(t *testing.T) {
	db, err := NewMemoryDB()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	member := models.Member{
		Username: "ada",
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
	}

	if err := db.Write(ctx, "Members/ada", member); err != nil {
		t.Fatal(err)
	}

	var out models.Member
	if err := db.Read(ctx, "/Members//ada/", &out); err != nil {
		t.Fatal(err)
	}
	if out.FullName != member.FullName || out.Email != member.Email {
		t.Errorf("Read returned %+v", out)
	}

	member.Email = "ada@lovelace.org"
	if err := db.Write(ctx, "Members/ada", member); err != nil {
		t.Fatal(err)
	}
	if err := db.Read(ctx, "Members/ada", &out); err != nil {
		t.Fatal(err)
	}
	if out.Email != "ada@lovelace.org" {
		t.Errorf("Write did not replace document, got %s", out.Email)
	}
}

func TestDB_ReadNotFound(t *testing.T) {
	db, err := NewMemoryDB()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var out models.Member
	err = db.Read(context.Background(), "Members/nobody", &out)
	if !database.IsNotFound(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestDB_ContextCanceled(t *testing.T) {
	db, err := NewMemoryDB()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := db.Write(ctx, "a/b", struct{}{}); err == nil {
		t.Error("Expected error writing with canceled context")
	}
}

func TestOpen_SqliteFile(t *testing.T) {
	dataDir, err := ioutil.TempDir("", "nairadesk-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dataDir)

	db, err := Open(dataDir, "")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	doc := map[string]string{"status": "active"}
	if err := db.Write(ctx, models.TransactionPath(42, "abc"), doc); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = Open(dataDir, "")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	out := make(map[string]string)
	if err := db.Read(ctx, "transactions/42/abc", &out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "active" {
		t.Errorf("Document not persisted, got %v", out)
	}
}
