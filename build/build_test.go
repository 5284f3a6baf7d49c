package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/graph"
	"github.com/forgepkg/forge/graph/cache"
	"github.com/forgepkg/forge/ident"
	"github.com/forgepkg/forge/render"
	"github.com/forgepkg/forge/solve"
	"github.com/forgepkg/forge/storagedriver/filesystem"
	"github.com/forgepkg/forge/version"
)

// buildFakeCatalog is a single-version, single-build in-memory catalog
// used only to drive the two solves Engine.Build performs; version
// filtering is deliberately loose (every registered build is offered for
// any query) since these tests exercise exactly one package per solve.
type buildFakeCatalog struct {
	versions []version.Version
	builds   []ident.Build
	specs    map[string]solve.PackageSpec
}

func newBuildFakeCatalog() *buildFakeCatalog {
	return &buildFakeCatalog{specs: make(map[string]solve.PackageSpec)}
}

func (c *buildFakeCatalog) Name() string { return "fake" }

func (c *buildFakeCatalog) ListVersions(ident.Name) ([]version.Version, error) { return c.versions, nil }

func (c *buildFakeCatalog) ListBuilds(ident.Name, version.Version) ([]ident.Build, error) {
	return c.builds, nil
}

func (c *buildFakeCatalog) ReadRecipe(v ident.VersionIdent) (solve.Recipe, error) {
	return solve.Recipe{Ident: v}, nil
}

func (c *buildFakeCatalog) ReadSpec(id ident.Ident) (solve.PackageSpec, error) {
	spec, ok := c.specs[id.Name.String()+"/"+id.Build.String()]
	if !ok {
		return solve.PackageSpec{}, fmt.Errorf("no spec for %s/%s", id.Name, id.Build)
	}
	return spec, nil
}

func (c *buildFakeCatalog) register(spec solve.PackageSpec) {
	c.versions = append(c.versions, spec.Ident.Version)
	c.builds = append(c.builds, spec.Ident.Build)
	c.specs[spec.Ident.Name.String()+"/"+spec.Ident.Build.String()] = spec
}

func newTestEngine(t *testing.T, cat *buildFakeCatalog) (*Engine, string) {
	t.Helper()
	storeRoot, err := os.MkdirTemp("", "forge-build-store")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(storeRoot) })

	driver := filesystem.New(storeRoot)
	store := graph.New(driver, func(k cache.Kind) cache.Provider { return cache.NewMemory(16) })

	workDir, err := os.MkdirTemp("", "forge-build-work")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(workDir) })

	renderer := render.New(store, filepath.Join(workDir, ".proxy-store"))
	solver := solve.New([]solve.Catalog{cat}, solve.Options{})
	return New(store, solver, renderer), workDir
}

// commitSourceLayer writes a single-file tree containing name -> content
// into store and returns the committed Layer object's digest.
func commitSourceLayer(t *testing.T, store *graph.Store, name, content string) digest.Digest {
	t.Helper()
	blob, err := store.CommitBlob(bytes.NewReader([]byte(content)), "src-"+name)
	if err != nil {
		t.Fatal(err)
	}
	root := forge.Entry{
		Kind: forge.EntryTree,
		Mode: 0o755,
		Children: []forge.NamedEntry{
			{Name: name, Entry: forge.Entry{Kind: forge.EntryBlob, Mode: 0o644, Size: blob.Size, Digest: blob.PayloadDigest}},
		},
	}
	manifest, err := forge.NewManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, tree := range manifest.TreeCache {
		if _, err := store.WriteObject(tree); err != nil {
			t.Fatal(err)
		}
	}
	manifestDigest, err := store.WriteObject(manifest.Object())
	if err != nil {
		t.Fatal(err)
	}
	layerDigest, err := store.WriteObject(forge.Layer{ManifestDigest: manifestDigest})
	if err != nil {
		t.Fatal(err)
	}
	return layerDigest
}

func TestBuildProducesComponentLayer(t *testing.T) {
	cat := newBuildFakeCatalog()

	storeRoot, err := os.MkdirTemp("", "forge-build-src-store")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(storeRoot)
	srcDriver := filesystem.New(storeRoot)
	srcStore := graph.New(srcDriver, func(k cache.Kind) cache.Provider { return cache.NewMemory(16) })

	v := version.Version{Parts: []uint64{1, 0, 0}}
	layerDigest := commitSourceLayer(t, srcStore, "input.txt", "hello source")

	cat.register(solve.PackageSpec{
		Ident:  ident.Ident{Name: "mypkg", Version: v, Build: ident.SourceBuild},
		Layers: map[string]digest.Digest{"source": layerDigest},
	})

	engine, workDir := newTestEngine(t, cat)
	// Re-point the engine's store at the same backing directory as
	// srcStore so the rendered layer's payload is reachable.
	engine.Store = graph.New(srcDriver, func(k cache.Kind) cache.Provider { return cache.NewMemory(16) })
	engine.Renderer = render.New(engine.Store, filepath.Join(workDir, ".proxy-store"))

	recipe := solve.Recipe{
		Ident:  ident.VersionIdent{Name: "mypkg", Version: v},
		Script: "echo built > output.txt",
		ComponentRules: []solve.ComponentRule{
			{Name: "run", Patterns: []string{"output.txt"}, MatchMode: solve.MatchAll},
		},
	}

	result, err := engine.Build(context.Background(), recipe, map[string]string{}, filepath.Join(workDir, "build"))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	layer, ok := result.Layers["run"]
	if !ok || layer == "" {
		t.Fatalf("expected a committed layer for component 'run', got %+v", result.Layers)
	}

	obj, err := engine.Store.ReadObject(layer, cache.CacheOk)
	if err != nil {
		t.Fatalf("reading committed layer: %v", err)
	}
	l, ok := obj.(forge.Layer)
	if !ok {
		t.Fatalf("expected a Layer object, got %T", obj)
	}
	manifestObj, err := engine.Store.ReadObject(l.ManifestDigest, cache.CacheOk)
	if err != nil {
		t.Fatal(err)
	}
	mo, ok := manifestObj.(forge.ManifestObject)
	if !ok {
		t.Fatalf("expected ManifestObject, got %T", manifestObj)
	}
	tree, err := engine.Store.ReadObject(mo.Root, cache.CacheOk)
	if err != nil {
		t.Fatal(err)
	}
	treeObj, ok := tree.(forge.Tree)
	if !ok {
		t.Fatalf("expected Tree, got %T", tree)
	}
	if _, ok := treeObj.ChildByName("output.txt"); !ok {
		t.Fatalf("expected output.txt in committed run component, got %+v", treeObj.Children)
	}
}
