package xapi

import (
	"errors"
	"os"
	"path/filepath"
)

// Artifacts are the raw responses of one endpoint, kept on disk between
// fetching and parsing. They are scoped to a single endpoint and removed
// before the next endpoint is fetched.
type Artifacts struct {
	Address string
	Config  string
	Status  string
	Command string
}

// NewArtifacts returns the artifact paths for address under dir.
func NewArtifacts(dir, address string) *Artifacts {
	return &Artifacts{
		Address: address,
		Config:  filepath.Join(dir, address+"-config.xml"),
		Status:  filepath.Join(dir, address+"-status.xml"),
		Command: filepath.Join(dir, address+"-command.xml"),
	}
}

// Paths lists the three artifact files.
func (a *Artifacts) Paths() []string {
	return []string{a.Config, a.Status, a.Command}
}

// Remove deletes the artifact files. Files that do not exist are ignored.
func (a *Artifacts) Remove() error {
	var errs []error
	for _, p := range a.Paths() {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
