package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMain(m *testing.M) {
	addPersistentFlags()
	registerCommands()
	os.Exit(m.Run())
}

const greeterYAML = `
name: Greeter
messages:
  clarification: Pardon?
  abortStatement: Bye
intents:
  - Name: greeting
    Utterances: [hi, hello]
`

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.yaml")
	if err := os.WriteFile(path, []byte(greeterYAML), 0o600); err != nil {
		t.Fatalf("failed to write definition: %v", err)
	}

	rootCmd.SetArgs([]string{"validate", "--file", path, "--prefix", "dev"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("validate unexpected error: %v", err)
	}

	def, err := loadDefinition()
	if err != nil {
		t.Fatalf("loadDefinition() unexpected error: %v", err)
	}
	if def.Bot.Name != "devGreeter" {
		t.Errorf("bot name = %q, want devGreeter", def.Bot.Name)
	}
}

func TestValidateCommandRejectsInvalidDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("name: Greeter\nintents: []\n"), 0o600); err != nil {
		t.Fatalf("failed to write definition: %v", err)
	}

	rootCmd.SetArgs([]string{"validate", "--file", path})
	if err := rootCmd.Execute(); err == nil {
		t.Error("validate expected error for a definition without messages")
	}
}
