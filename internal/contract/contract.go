// Package contract verifies that a server codebase exposes separately runnable
// API and worker processes: two entrypoint files and four launch scripts
// declared in its manifest.
package contract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Default layout of a two-process server.
const (
	DefaultAPIEntrypoint    = "src/start-api.js"
	DefaultWorkerEntrypoint = "src/start-worker.js"
	DefaultManifest         = "package.json"
)

// DefaultScripts are the launch scripts every server must declare.
var DefaultScripts = []string{"dev:api", "dev:worker", "start:api", "start:worker"}

// Contract names the files and scripts a server root must provide.
// All paths are relative to the server root.
type Contract struct {
	APIEntrypoint    string   `json:"api_entrypoint" yaml:"api_entrypoint"`
	WorkerEntrypoint string   `json:"worker_entrypoint" yaml:"worker_entrypoint"`
	Manifest         string   `json:"manifest" yaml:"manifest"`
	Scripts          []string `json:"scripts" yaml:"scripts"`
}

// DefaultContract returns the node-style api/worker contract.
func DefaultContract() Contract {
	scripts := make([]string, len(DefaultScripts))
	copy(scripts, DefaultScripts)
	return Contract{
		APIEntrypoint:    DefaultAPIEntrypoint,
		WorkerEntrypoint: DefaultWorkerEntrypoint,
		Manifest:         DefaultManifest,
		Scripts:          scripts,
	}
}

// Validate rejects contracts that cannot be evaluated.
func (c Contract) Validate() error {
	for name, p := range map[string]string{
		"api entrypoint":    c.APIEntrypoint,
		"worker entrypoint": c.WorkerEntrypoint,
		"manifest":          c.Manifest,
	} {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("contract: %s path is empty", name)
		}
		if filepath.IsAbs(p) {
			return fmt.Errorf("contract: %s path %q must be relative to the server root", name, p)
		}
	}
	seen := make(map[string]bool, len(c.Scripts))
	for _, s := range c.Scripts {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("contract: empty script name")
		}
		if seen[s] {
			return fmt.Errorf("contract: duplicate script %q", s)
		}
		seen[s] = true
	}
	return nil
}
