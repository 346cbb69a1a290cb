package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/onionsearch/internal/database"
)

// testPage is a page stored by seedDB.
type testPage struct {
	url     string
	title   string
	content string
}

// testEnv is an isolated data directory with an empty configuration file.
type testEnv struct {
	dataDir    string
	configPath string
}

// newTestEnv creates a data directory and an empty configuration file so
// that no .onionsearch of the developer leaks into the test.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, nil, 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return testEnv{
		dataDir:    filepath.Join(dir, "data"),
		configPath: configPath,
	}
}

// seedDB stores pages in the environment's database.
func (e testEnv) seedDB(t *testing.T, pages ...testPage) {
	t.Helper()

	db, err := database.Open(e.dataDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	sess, err := db.Session(ctx)
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	defer sess.Close()

	for _, p := range pages {
		if err := sess.SavePage(ctx, p.url, p.title, p.content, 200); err != nil {
			t.Fatalf("SavePage(%s) failed: %v", p.url, err)
		}
	}
}

// run executes the root command with the environment's global flags.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", e.configPath, "--data-dir", e.dataDir}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// marketPages is a small corpus shared by the search tests.
var marketPages = []testPage{
	{url: "http://a.onion", title: "Bitcoin Market", content: "buy and sell goods with bitcoin at the market"},
	{url: "http://b.onion", title: "Privacy Forum", content: "discussion forum about privacy and anonymity"},
	{url: "http://c.onion", title: "Market News", content: "daily market prices and market news"},
	{url: "http://d.onion", title: "", content: "hidden wiki link directory"},
}

// writeConfig replaces the configuration file with content.
func writeConfig(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}
