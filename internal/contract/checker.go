package contract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"opsdeck/internal/logging"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Kind distinguishes what an assertion inspects.
type Kind string

const (
	KindFile   Kind = "file"
	KindScript Kind = "script"
)

// Assertion is the outcome of one independent contract check.
type Assertion struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Target  string `json:"target"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

func (a *Assertion) fail(err error) {
	a.Passed = false
	a.Err = err
	a.Message = err.Error()
}

// Checker evaluates a Contract against server roots.
type Checker struct {
	contract Contract
}

// NewChecker returns a checker for c, or an error if c is malformed.
func NewChecker(c Contract) (*Checker, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Checker{contract: c}, nil
}

// Contract returns the contract this checker evaluates.
func (c *Checker) Contract() Contract {
	return c.contract
}

// Check evaluates every assertion of the contract against root. Assertions run
// concurrently and never short-circuit each other; the report lists them in a
// fixed order: api entrypoint, worker entrypoint, then scripts in contract order.
//
// A manifest that cannot be read or parsed fails every script assertion with
// the same *ManifestError, and Check returns that error alongside the report.
func (c *Checker) Check(ctx context.Context, root string) (*Report, error) {
	if root == "" {
		return nil, fmt.Errorf("server root is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logging.CheckDebug("checking %s (manifest %s, %d scripts)", root, c.contract.Manifest, len(c.contract.Scripts))
	timer := logging.StartTimer(logging.CategoryCheck, "contract check")
	defer timer.Stop()

	start := time.Now()
	report := &Report{
		ID:        uuid.NewString(),
		Root:      root,
		Contract:  c.contract,
		CheckedAt: start,
	}

	files := []*Assertion{
		{Name: "api entrypoint", Kind: KindFile, Target: c.contract.APIEntrypoint},
		{Name: "worker entrypoint", Kind: KindFile, Target: c.contract.WorkerEntrypoint},
	}
	scripts := make([]*Assertion, len(c.contract.Scripts))
	for i, key := range c.contract.Scripts {
		scripts[i] = &Assertion{Name: "script " + key, Kind: KindScript, Target: key}
	}

	var manifestErr error
	g, gctx := errgroup.WithContext(ctx)

	for _, a := range files {
		a := a
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			checkFile(root, a)
			return nil
		})
	}

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		manifestPath := filepath.Join(root, c.contract.Manifest)
		m, err := LoadManifest(manifestPath)
		if err == nil {
			if typeErr := m.requireStrings(c.contract.Scripts); typeErr != nil {
				err = &ManifestError{Path: manifestPath, Err: typeErr}
			}
		}
		if err != nil {
			manifestErr = err
			for _, a := range scripts {
				a.fail(err)
			}
			return nil
		}
		for _, a := range scripts {
			if _, ok := m.Script(a.Target); ok {
				a.Passed = true
				continue
			}
			a.fail(&MissingScriptError{Key: a.Target, Manifest: c.contract.Manifest})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, a := range files {
		report.Assertions = append(report.Assertions, *a)
	}
	for _, a := range scripts {
		report.Assertions = append(report.Assertions, *a)
	}
	report.Duration = time.Since(start)

	log := logging.Get(logging.CategoryCheck).With("report", report.ID, "root", root)
	if report.Passed() {
		log.Info("contract satisfied (%d assertions)", len(report.Assertions))
	} else {
		for _, a := range report.Failed() {
			log.Warn("%s failed: %s", a.Name, a.Message)
		}
	}

	if manifestErr != nil {
		return report, manifestErr
	}
	return report, nil
}

func checkFile(root string, a *Assertion) {
	info, err := os.Stat(filepath.Join(root, a.Target))
	switch {
	case err == nil && info.IsDir():
		a.fail(&MissingFileError{Path: a.Target})
	case err == nil:
		a.Passed = true
	case errors.Is(err, os.ErrNotExist):
		a.fail(&MissingFileError{Path: a.Target})
	default:
		a.fail(fmt.Errorf("stat %s: %w", a.Target, err))
	}
}
