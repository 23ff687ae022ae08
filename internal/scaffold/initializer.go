// Package scaffold creates a starter warren project.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dyluth/warren/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// ConfigFile is the name of the generated configuration.
const ConfigFile = "warren.yml"

// DataDir holds the collector's CSV output.
const DataDir = "data"

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates the project in dir. If force is true, an existing
// warren.yml is replaced.
func Initialize(dir string, force bool) error {
	if force {
		if err := handleForce(dir); err != nil {
			return err
		}
	} else if err := CheckExisting(dir); err != nil {
		return err
	}

	files, err := getTemplateFiles(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, DataDir), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", DataDir, err)
	}
	if err := writeFiles(files); err != nil {
		return err
	}
	return validateCreatedFiles(dir)
}

func handleForce(dir string) error {
	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", ConfigFile, err)
		}
	}
	return nil
}

func getTemplateFiles(dir string) ([]FileInfo, error) {
	cfg, err := templatesFS.ReadFile("templates/warren.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read %s template: %w", ConfigFile, err)
	}
	return []FileInfo{
		{Path: filepath.Join(dir, ConfigFile), Content: cfg, Permissions: 0o644},
		{Path: filepath.Join(dir, DataDir, ".gitkeep"), Content: nil, Permissions: 0o644},
	}, nil
}

func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles loads the generated configuration through the normal
// validation path.
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, ConfigFile)); err != nil {
		return fmt.Errorf("created %s is invalid: %w", ConfigFile, err)
	}
	return nil
}

// PrintSuccess prints the created files and next steps.
func PrintSuccess(w io.Writer) {
	fmt.Fprintln(w, "\n✅ Successfully initialized warren project!")
	fmt.Fprintln(w, "\nCreated:")
	fmt.Fprintf(w, "  ✓ %s\n", ConfigFile)
	fmt.Fprintf(w, "  ✓ %s/\n", DataDir)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Add 'warren.db' and 'data/' to your .gitignore file")
	fmt.Fprintf(w, "  2. Adjust the survey section of %s\n", ConfigFile)
	fmt.Fprintln(w, "  3. Run 'warren simulate --config warren.yml --show' to try a session")
}
