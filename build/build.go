// Package build implements builder coordination (spec.md §4.I): resolving
// a source package and its build environment, rendering that environment
// to disk, running a recipe's build script under it, and committing the
// resulting changeset as one layer per declared component. Grounded on
// original_source/crates/spk-build/src/build/binary.rs for the overall
// sequence and its split_manifest_by_component/commit_component_layers
// functions, with ownership-conflict bookkeeping in the same spirit as
// that file's ConflictingPackagePair map.
package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/graph"
	"github.com/forgepkg/forge/ident"
	"github.com/forgepkg/forge/render"
	"github.com/forgepkg/forge/solve"
	"github.com/forgepkg/forge/vfs"
)

// Policy validates a completed changeset before it is split and
// committed, e.g. rejecting changes outside an allow-listed prefix or
// files matching no component rule at all.
type Policy interface {
	Validate(cs Changeset, conflicts map[ConflictPair][]string) error
}

// DefaultPolicy accepts any changeset; callers with stricter requirements
// supply their own Policy.
type DefaultPolicy struct{}

func (DefaultPolicy) Validate(Changeset, map[ConflictPair][]string) error { return nil }

// ChangesetError is the rich validation failure described in spec.md
// §4.I step 7: the offending change plus whatever packages were found
// contending for its path.
type ChangesetError struct {
	Change      Change
	Conflicts   []ident.Ident
	Description string
}

func (e *ChangesetError) Error() string {
	return fmt.Sprintf("build: %s %s: %s", e.Change.Kind, e.Change.Path, e.Description)
}

// Engine resolves, renders, and builds recipes against a store.
type Engine struct {
	Store    *graph.Store
	Solver   *solve.Solver
	Renderer *render.Renderer
	Policy   Policy
}

func New(store *graph.Store, solver *solve.Solver, renderer *render.Renderer) *Engine {
	return &Engine{Store: store, Solver: solver, Renderer: renderer, Policy: DefaultPolicy{}}
}

// Result is what a successful Build produces: the resolved build
// identifier and the committed layer digest for each component it split
// the changeset into.
type Result struct {
	Ident  ident.Ident
	Layers map[string]digest.Digest
}

// Build runs the nine steps of spec.md §4.I against recipe under
// workDir, a directory Build creates and owns for the duration of this
// call.
func (e *Engine) Build(ctx context.Context, recipe solve.Recipe, buildOptions map[string]string, workDir string) (Result, error) {
	// 1. Resolve the source package and the build environment in two
	// successive solves.
	sourceFinal, err := e.Solver.Solve(ctx, solve.State{
		PkgRequests: []ident.PkgRequest{sourceRequest(recipe.Ident.Name)},
		Options:     map[string]string{},
	})
	if err != nil {
		return Result{}, fmt.Errorf("build: resolving source package: %w", err)
	}

	envState := solve.State{Options: cloneOptions(buildOptions)}
	for _, req := range recipe.BuildRequirements {
		if req.IsPkg() {
			envState.PkgRequests = append(envState.PkgRequests, *req.Pkg)
		}
		if req.IsVar() {
			envState.VarRequests = append(envState.VarRequests, *req.Var)
		}
	}
	envFinal, err := e.Solver.Solve(ctx, envState)
	if err != nil {
		return Result{}, fmt.Errorf("build: resolving build environment: %w", err)
	}

	// 2. Materialize resolved layers into a rendered environment.
	envDir := filepath.Join(workDir, "env")
	if err := os.MkdirAll(envDir, 0o755); err != nil {
		return Result{}, err
	}
	ledger := NewLedger()
	resolved := append(append([]solve.Resolution(nil), sourceFinal.Resolved...), envFinal.Resolved...)
	if err := e.renderEnvironment(ctx, resolved, ledger, envDir); err != nil {
		return Result{}, err
	}

	// 3 already folded into renderEnvironment (per-path ownership is
	// recorded as each package's files are rendered).

	before, err := snapshot(envDir)
	if err != nil {
		return Result{}, err
	}

	// 4. Execute the recipe's build script under the environment.
	if err := e.runScript(ctx, recipe, buildOptions, envDir); err != nil {
		return Result{}, fmt.Errorf("build: script failed: %w", err)
	}

	// 5. Reset the source-directory paths (prune build-side changes to
	// the source tree) -- re-render every path the source package owns.
	if err := e.resetSourcePaths(ctx, sourceFinal.Resolved, ledger, envDir); err != nil {
		return Result{}, err
	}

	// 6. Compute the changeset between before and after.
	after, err := snapshot(envDir)
	if err != nil {
		return Result{}, err
	}
	cs := diff(before, after)

	// 7. Validate the changeset.
	conflicts := ledger.Conflicts()
	if err := e.Policy.Validate(cs, conflicts); err != nil {
		return Result{}, err
	}

	// 8. Split the changeset into per-component manifests.
	split := splitByComponent(cs, recipe.ComponentRules)

	// 9. Commit each component's manifest and layer object atomically.
	buildIdent := ident.Ident{Name: recipe.Ident.Name, Version: recipe.Ident.Version, Build: buildIDFor(buildOptions)}
	layers := make(map[string]digest.Digest, len(split))
	for _, rule := range recipe.ComponentRules {
		paths := split[rule.Name]
		sort.Strings(paths)
		layerDigest, err := e.commitComponent(envDir, paths)
		if err != nil {
			return Result{}, fmt.Errorf("build: committing component %q: %w", rule.Name, err)
		}
		layers[rule.Name] = layerDigest
	}

	return Result{Ident: buildIdent, Layers: layers}, nil
}

func sourceRequest(name ident.Name) ident.PkgRequest {
	req := ident.NewPkgRequest(ident.RangeIdent{Name: name, Build: &ident.SourceBuild})
	return req
}

func cloneOptions(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// buildIDFor derives a deterministic build hash from the resolved option
// values, the same role original_source's OptionMap digest plays.
func buildIDFor(options map[string]string) ident.Build {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s=%s;", k, options[k])
	}
	return ident.NewBuildID(digest.FromBytes(buf.Bytes()).Encoded()[:10])
}

// renderEnvironment materializes every resolved package's components
// into dir, recording per-path ownership as it goes (spec.md §4.I step
// 3).
func (e *Engine) renderEnvironment(ctx context.Context, resolved []solve.Resolution, ledger *Ledger, dir string) error {
	repos := []vfs.Repo{e.Store}
	for _, r := range resolved {
		for _, layerDigest := range r.Spec.Layers {
			entry, err := vfs.Resolve(repos, vfs.EnvSpec{References: []string{layerDigest.String()}})
			if err != nil {
				return err
			}
			manifest, err := forge.NewManifest(entry)
			if err != nil {
				return err
			}
			if err := e.Renderer.Render(ctx, manifest, dir, render.Copy); err != nil {
				return err
			}
			recordOwnership(ledger, entry, "", r.Spec.Ident)
		}
	}
	return nil
}

func recordOwnership(ledger *Ledger, e forge.Entry, prefix string, owner ident.Ident) {
	for _, c := range e.Children {
		path := prefix + c.Name
		ledger.Claim(path, owner)
		if c.Entry.Kind == forge.EntryTree {
			recordOwnership(ledger, c.Entry, path+"/", owner)
		}
	}
}

// resetSourcePaths re-renders every path owned by a source-build
// resolution, discarding whatever the build script wrote there (spec.md
// §4.I step 5).
func (e *Engine) resetSourcePaths(ctx context.Context, sourceResolved []solve.Resolution, ledger *Ledger, dir string) error {
	repos := []vfs.Repo{e.Store}
	for _, r := range sourceResolved {
		for _, layerDigest := range r.Spec.Layers {
			entry, err := vfs.Resolve(repos, vfs.EnvSpec{References: []string{layerDigest.String()}})
			if err != nil {
				return err
			}
			manifest, err := forge.NewManifest(entry)
			if err != nil {
				return err
			}
			if err := e.Renderer.Render(ctx, manifest, dir, render.Copy); err != nil {
				return err
			}
		}
	}
	return nil
}

// runScript executes recipe.Script with each build option exposed as an
// FORGE_OPT_<NAME> environment variable, under dir.
func (e *Engine) runScript(ctx context.Context, recipe solve.Recipe, buildOptions map[string]string, dir string) error {
	if recipe.Script == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", recipe.Script)
	cmd.Dir = dir
	env := os.Environ()
	for k, v := range buildOptions {
		env = append(env, "FORGE_OPT_"+k+"="+v)
	}
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		return forgeerr.Fatalf("build script exited: %v; output: %s", err, out)
	}
	return nil
}

// commitComponent builds a Tree/Manifest/Layer object chain from the
// current content of paths under dir and writes it atomically to the
// store, returning the Layer's digest.
func (e *Engine) commitComponent(dir string, paths []string) (digest.Digest, error) {
	root := forge.Entry{Kind: forge.EntryTree, Mode: 0o755}
	for _, rel := range paths {
		if err := e.insertPath(&root, rel, filepath.Join(dir, rel)); err != nil {
			return "", err
		}
	}
	manifest, err := forge.NewManifest(root)
	if err != nil {
		return "", err
	}
	for _, tree := range manifest.TreeCache {
		if _, err := e.Store.WriteObject(tree); err != nil {
			return "", err
		}
	}
	manifestDigest, err := e.Store.WriteObject(manifest.Object())
	if err != nil {
		return "", err
	}
	return e.Store.WriteObject(forge.Layer{ManifestDigest: manifestDigest})
}

func (e *Engine) insertPath(root *forge.Entry, rel, abs string) error {
	segments := splitSegments(rel)
	node := root
	for i, seg := range segments {
		last := i == len(segments)-1
		idx := childIndex(node, seg)
		if idx < 0 {
			child := forge.Entry{Kind: forge.EntryTree, Mode: 0o755}
			if last {
				e2, err := e.blobEntry(abs)
				if err != nil {
					return err
				}
				child = e2
			}
			node.Children = append(node.Children, forge.NamedEntry{Name: seg, Entry: child})
			idx = len(node.Children) - 1
		}
		node = &node.Children[idx].Entry
	}
	return nil
}

func childIndex(e *forge.Entry, name string) int {
	for i, c := range e.Children {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// splitSegments splits a "/"-joined relative path into its components.
func splitSegments(rel string) []string {
	var out []string
	start := 0
	clean := filepath.ToSlash(rel)
	for i := 0; i < len(clean); i++ {
		if clean[i] == '/' {
			if i > start {
				out = append(out, clean[start:i])
			}
			start = i + 1
		}
	}
	if start < len(clean) {
		out = append(out, clean[start:])
	}
	return out
}

func (e *Engine) blobEntry(abs string) (forge.Entry, error) {
	info, err := os.Lstat(abs)
	if err != nil {
		return forge.Entry{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return forge.Entry{}, err
	}
	defer f.Close()
	blob, err := e.Store.CommitBlob(f, "build")
	if err != nil {
		return forge.Entry{}, err
	}
	return forge.Entry{Kind: forge.EntryBlob, Mode: info.Mode(), Size: blob.Size, Digest: blob.PayloadDigest}, nil
}
