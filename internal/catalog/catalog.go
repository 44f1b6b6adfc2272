package catalog

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/toolwrap/internal/application"
	"github.com/specialistvlad/toolwrap/internal/ctxlog"
	"github.com/specialistvlad/toolwrap/internal/fsutil"
)

//go:embed builtin/*.hcl
var builtinFS embed.FS

// Catalog is a set of tool definitions keyed by tool name.
type Catalog struct {
	tools map[string]*Tool
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{tools: make(map[string]*Tool)}
}

// Load returns the built-in catalog extended with every .hcl file found at
// paths. A path may be a file or a directory, which is searched
// recursively. Files are applied in order and a later definition of a tool
// replaces an earlier one.
func Load(ctx context.Context, paths ...string) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)

	c, err := Builtin(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		if err := c.LoadPath(ctx, p); err != nil {
			return nil, err
		}
	}

	logger.Info("Catalog loaded successfully.", "tools", c.Len(), "user_paths", len(paths))
	return c, nil
}

// Builtin returns a catalog holding the embedded Vienna RNA and COVE tools.
func Builtin(ctx context.Context) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)

	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded catalogs: %w", err)
	}

	c := New()
	parser := hclparse.NewParser()
	for _, e := range entries {
		name := path.Join("builtin", e.Name())
		src, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded catalog %s: %w", name, err)
		}
		if err := c.parse(ctx, parser, src, name); err != nil {
			return nil, err
		}
	}

	logger.Debug("Loaded built-in catalog.", "files", len(entries), "tools", c.Len())
	return c, nil
}

// LoadPath adds the tools declared in the .hcl files at p.
func (c *Catalog) LoadPath(ctx context.Context, p string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading catalog files...", "path", p)

	filePaths, err := fsutil.FindFilesByExtension(p, ".hcl")
	if err != nil {
		logger.Error("Failed to walk catalog path", "path", p, "error", err)
		return fmt.Errorf("failed to find catalog files in %s: %w", p, err)
	}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl catalog files found in path", "path", p)
		return nil
	}

	parser := hclparse.NewParser()
	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
		}
		tools, diags := ParseFile(ctx, hclFile, filePath)
		if diags.HasErrors() {
			return fmt.Errorf("failed to process tool definitions in %s: %w", filePath, diags)
		}
		c.Add(ctx, tools...)
	}
	return nil
}

func (c *Catalog) parse(ctx context.Context, parser *hclparse.Parser, src []byte, filename string) error {
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	tools, diags := ParseFile(ctx, hclFile, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to process tool definitions in %s: %w", filename, diags)
	}
	c.Add(ctx, tools...)
	return nil
}

// Add registers tools, replacing any existing tool of the same name.
func (c *Catalog) Add(ctx context.Context, tools ...*Tool) {
	logger := ctxlog.FromContext(ctx)
	for _, t := range tools {
		if prev, ok := c.tools[t.Name]; ok {
			logger.Debug("Replacing tool definition.", "tool", t.Name, "previous_source", prev.Source, "source", t.Source)
		}
		c.tools[t.Name] = t
	}
}

// Get returns the tool named name.
func (c *Catalog) Get(name string) (*Tool, error) {
	t, ok := c.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t, nil
}

// Definition returns the application definition of the tool named name.
func (c *Catalog) Definition(name string) (application.Definition, error) {
	t, err := c.Get(name)
	if err != nil {
		return application.Definition{}, err
	}
	return t.Definition()
}

// Names returns the tool names in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tools.
func (c *Catalog) Len() int { return len(c.tools) }
