/*
Copyright © 2025 3 Leaps (hello@3leaps.net and https://3leaps.net)
*/
package ops

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// TestRegistry_BasicRegistration tests basic command registration functionality
func TestRegistry_BasicRegistration(t *testing.T) {
	registry := NewRegistry()
	testCmd := &cobra.Command{Use: "pack", Short: "Pack maps"}

	if err := registry.Register("pack", GroupPack, testCmd, "Pack maps"); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	cmd, exists := registry.GetCommand("pack")
	if !exists {
		t.Fatal("Expected command to exist after registration")
	}
	if cmd.Group != GroupPack {
		t.Errorf("Expected command group 'pack', got '%s'", cmd.Group)
	}
	if cmd.Command != testCmd {
		t.Error("Expected command object to match registered command")
	}
}

// TestRegistry_DuplicateRegistration tests handling of duplicate command registration
func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register("roots", GroupInspect, &cobra.Command{Use: "roots"}, "first"); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err := registry.Register("roots", GroupInspect, &cobra.Command{Use: "roots"}, "second")
	if err == nil {
		t.Fatal("Expected error for duplicate registration")
	}
	if !strings.Contains(err.Error(), "already registered") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestRegistry_GetCommandsByGroup checks grouping keeps registration order
func TestRegistry_GetCommandsByGroup(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"roots", "inspect"} {
		if err := registry.Register(name, GroupInspect, &cobra.Command{Use: name}, name); err != nil {
			t.Fatal(err)
		}
	}
	if err := registry.Register("version", GroupSupport, &cobra.Command{Use: "version"}, "version"); err != nil {
		t.Fatal(err)
	}

	got := registry.GetCommandsByGroup(GroupInspect)
	if len(got) != 2 || got[0].Name != "roots" || got[1].Name != "inspect" {
		t.Errorf("unexpected inspect group: %+v", got)
	}
	if n := registry.ListGroups()[GroupSupport]; n != 1 {
		t.Errorf("expected 1 support command, got %d", n)
	}
	if len(registry.GetCommandsByGroup(GroupPack)) != 0 {
		t.Error("expected empty pack group")
	}
}

// TestValidate covers missing, misfiled and unknown-group commands
func TestValidate(t *testing.T) {
	registry := NewRegistry()
	for name, group := range CoreCommands {
		if err := registry.Register(name, group, &cobra.Command{Use: name}, name); err != nil {
			t.Fatal(err)
		}
	}
	if errs := Validate(registry); len(errs) != 0 {
		t.Fatalf("expected a clean registry, got %v", errs)
	}

	broken := NewRegistry()
	_ = broken.Register("pack", GroupSupport, &cobra.Command{Use: "pack"}, "pack")
	_ = broken.Register("extra", CommandGroup("bogus"), &cobra.Command{Use: "extra"}, "extra")
	errs := Validate(broken)

	var text []string
	for _, e := range errs {
		text = append(text, e.Error())
	}
	joined := strings.Join(text, "\n")
	for _, want := range []string{
		"extra: uses invalid group: bogus",
		"inspect: core command is not registered",
		"pack: incorrect group: expected pack, got support",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}
