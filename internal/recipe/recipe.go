// Package recipe declares the build tasks of a project on a task graph.
package recipe

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/maxkimambo/assetflow/internal/cleaner"
	"github.com/maxkimambo/assetflow/internal/config"
	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/logger"
	"github.com/maxkimambo/assetflow/internal/notify"
	"github.com/maxkimambo/assetflow/internal/stage"
	"github.com/maxkimambo/assetflow/internal/taskgraph"
	"github.com/maxkimambo/assetflow/internal/transform"
	"github.com/maxkimambo/assetflow/internal/watcher"
)

// DefaultTasks are the prerequisites of the default task.
var DefaultTasks = []string{
	"scss",
	"compile",
	"scss-vendors",
	"javascript",
	"js-vendors",
	"images",
	"fonts",
	"pages",
}

// SourceFactory opens the event source of the watch task.
type SourceFactory func(root string, rules []watcher.Rule) (watcher.Source, error)

// Deps are the collaborators of the tasks. Zero values select the
// defaults.
type Deps struct {
	Notifier notify.Notifier
	// StyleCompiler replaces the Sass command line compiler.
	StyleCompiler transform.Transformer
	// Progress receives the image progress bar; nil hides it.
	Progress io.Writer
	// WatchSource defaults to an fsnotify source.
	WatchSource SourceFactory
}

type builder struct {
	cfg      *config.Config
	root     string
	notifier notify.Notifier
	deps     Deps

	// plain writes copies and intermediate files, bundles go through dist
	plain *stage.Sink
	dist  *stage.Sink

	graph *taskgraph.Graph
}

// Build validates cfg and returns a graph holding every task of the
// project.
func Build(cfg *config.Config, deps Deps) (*taskgraph.Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		cfg:      cfg,
		root:     cfg.Root(),
		notifier: deps.Notifier,
		deps:     deps,
		plain:    &stage.Sink{Root: cfg.Root()},
		dist: &stage.Sink{
			Root:        cfg.Root(),
			Precompress: cfg.Precompress.Enabled,
			Quality:     cfg.Precompress.Quality,
			Extensions:  cfg.Precompress.Extensions,
		},
		graph: taskgraph.New(),
	}
	if b.notifier == nil {
		b.notifier = notify.Nop{}
	}
	b.graph.SetMaxParallel(cfg.MaxParallel)

	tasks, err := b.tasks()
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if err := b.graph.Add(t); err != nil {
			return nil, err
		}
	}
	return b.graph, nil
}

func (b *builder) tasks() ([]taskgraph.Task, error) {
	styleCompiler, err := b.styleCompiler()
	if err != nil {
		return nil, err
	}
	scripts, err := transform.NewScriptCompiler(b.cfg.Scripts.Target, true)
	if err != nil {
		return nil, &aferrors.ConfigError{Field: "scripts.target", Reason: err.Error()}
	}

	c := b.cfg
	intermediateCSS := path.Join(c.Styles.Intermediate, "*.css")

	scss := []stage.Stage{
		&stage.StyleStage{
			Meta:        stage.Meta{Label: "scss", Message: "SCSS task complete."},
			Root:        b.root,
			Sources:     c.Styles.Sources,
			Dest:        c.Styles.Intermediate,
			Transformer: styleCompiler,
			Sink:        b.plain,
		},
		&stage.CopyStage{
			Meta:    stage.Meta{Label: "scss-assets", Message: "SCSS Vendors - task complete."},
			Root:    b.root,
			Sources: c.Styles.Assets,
			Exclude: c.Styles.Sources,
			Dest:    c.Styles.Intermediate,
			Sink:    b.plain,
		},
	}

	compile := &stage.BundleStage{
		Meta:        stage.Meta{Label: "compile", Message: "Compile task complete."},
		Root:        b.root,
		Sources:     []string{intermediateCSS},
		Bundle:      c.Styles.Bundle,
		Dest:        c.Styles.Dest,
		Transformer: transform.NewCSSMinifier(),
		Sink:        b.dist,
	}

	scssVendors := &stage.CopyStage{
		Meta:    stage.Meta{Label: "scss-vendors", Message: "SCSS vendors - distribution task complete."},
		Root:    b.root,
		Sources: []string{path.Join(c.Styles.Intermediate, "**", "*")},
		Exclude: []string{intermediateCSS},
		Dest:    c.Styles.Dest,
		Sink:    b.plain,
	}

	javascript := &stage.BundleStage{
		Meta:        stage.Meta{Label: "javascript", Message: "JS task complete."},
		Root:        b.root,
		Sources:     c.Scripts.Sources,
		Exclude:     c.Scripts.Exclude,
		Bundle:      c.Scripts.Bundle,
		Dest:        c.Scripts.Dest,
		Transformer: scripts,
		Sourcemap:   &stage.MapConfig{SourceRoot: c.Scripts.SourceRoot},
		Sink:        b.dist,
	}

	perFile := func(label, message string, group config.Copy) stage.Stage {
		return &stage.PerFileStage{
			Meta:        stage.Meta{Label: label, Message: message},
			Root:        b.root,
			Sources:     group.Sources,
			Dest:        group.Dest,
			MapDir:      c.Scripts.Sourcemaps,
			Transformer: scripts,
			Sink:        b.dist,
		}
	}

	vendors := &stage.BundleStage{
		Meta:    stage.Meta{Label: "js-vendors", Message: "JS vendors task complete."},
		Root:    b.root,
		Sources: c.Vendor.Files,
		Bundle:  c.Vendor.Bundle,
		Dest:    c.Vendor.Dest,
		Sink:    b.dist,
	}
	if c.Vendor.Minify {
		// vendor files are shipped pre-built; minify without lowering syntax
		minifier, err := transform.NewScriptCompiler("esnext", true)
		if err != nil {
			return nil, err
		}
		vendors.Transformer = minifier
	}

	images := &stage.ImageStage{
		Meta:        stage.Meta{Label: "images", Message: "Images task complete."},
		Root:        b.root,
		Sources:     c.Images.Sources,
		Dest:        c.Images.Dest,
		Compressors: []transform.Transformer{transform.NewImageCompressor(c.Images.JPEGQuality)},
		Sink:        b.plain,
	}
	if c.Images.Progress {
		images.Progress = b.deps.Progress
	}

	copyStage := func(label, message string, group config.Copy) stage.Stage {
		return &stage.CopyStage{
			Meta:    stage.Meta{Label: label, Message: message},
			Root:    b.root,
			Sources: group.Sources,
			Dest:    group.Dest,
			Sink:    b.plain,
		}
	}

	return []taskgraph.Task{
		{
			Name:        "scss",
			Description: "Compile style sources and copy style assets to " + c.Styles.Intermediate,
			Action:      b.join(logger.User.Compilef, "Compiling SCSS to %s", c.Styles.Intermediate, scss...),
		},
		{
			Name:          "compile",
			Prerequisites: []string{"scss"},
			Description:   "Bundle and minify compiled stylesheets into " + path.Join(c.Styles.Dest, stage.MinName(c.Styles.Bundle)),
			Action:        b.join(logger.User.Compilef, "Compiling CSS to %s", c.Styles.Dest, compile),
		},
		{
			Name:          "scss-vendors",
			Prerequisites: []string{"compile"},
			Description:   "Copy style vendor assets to " + c.Styles.Dest,
			Action:        b.join(logger.User.Copyf, "Copying style vendor files to %s", c.Styles.Dest, scssVendors),
		},
		{
			Name:        "javascript",
			Description: "Bundle, transpile and minify scripts into " + javascript.Output(),
			Action:      b.join(logger.User.Compilef, "Compiling JS to %s", c.Scripts.Dest, javascript),
		},
		{
			Name:        "js-pages",
			Description: "Transpile page scripts into " + c.Scripts.Pages.Dest,
			Action:      b.join(logger.User.Compilef, "Compiling JS pages to %s", c.Scripts.Pages.Dest, perFile("js-pages", "JS pages task complete.", c.Scripts.Pages)),
		},
		{
			Name:        "js-components",
			Description: "Transpile component scripts into " + c.Scripts.Components.Dest,
			Action:      b.join(logger.User.Compilef, "Compiling JS components to %s", c.Scripts.Components.Dest, perFile("js-components", "JS components task complete.", c.Scripts.Components)),
		},
		{
			Name:        "js-interior",
			Description: "Transpile interior page scripts into " + c.Scripts.Interior.Dest,
			Action:      b.join(logger.User.Compilef, "Compiling JS interior pages to %s", c.Scripts.Interior.Dest, perFile("js-interior", "JS interior pages task complete.", c.Scripts.Interior)),
		},
		{
			Name:        "js-vendors",
			Description: "Concatenate vendor scripts into " + vendors.Output(),
			Action:      b.join(logger.User.Compilef, "Bundling JS vendors to %s", c.Vendor.Dest, vendors),
		},
		{
			Name:        "images",
			Description: "Compress images into " + c.Images.Dest,
			Action:      b.join(logger.User.Compilef, "Compressing images to %s", c.Images.Dest, images),
		},
		{
			Name:        "fonts",
			Description: "Copy fonts to " + c.Fonts.Dest,
			Action:      b.join(logger.User.Copyf, "Moving fonts to %s", c.Fonts.Dest, copyStage("fonts", "Fonts task complete.", c.Fonts)),
		},
		{
			Name:        "pages",
			Description: "Copy pages to " + c.Pages.Dest,
			Action:      b.join(logger.User.Copyf, "Moving pages to %s", c.Pages.Dest, copyStage("pages", "Pages task complete.", c.Pages)),
		},
		{
			Name:        "watch",
			Description: "Re-run tasks when sources change",
			Action:      b.watch,
		},
		{
			Name:        "clean",
			Description: "Remove " + strings.Join(c.Clean.Dirs, ", "),
			Action: func(ctx context.Context) error {
				logger.User.Cleanupf("Removing %s", strings.Join(c.Clean.Dirs, ", "))
				return stage.Trap(ctx, b.notifier, cleaner.Stage(b.root, c.Clean.Dirs))
			},
		},
		{
			Name:          "default",
			Prerequisites: DefaultTasks,
			Description:   "Build every distribution asset",
			Action: func(ctx context.Context) error {
				logger.User.Success("Default build complete.")
				return nil
			},
		},
	}, nil
}

// join returns an action that announces itself and runs the stages
// through the error boundary.
func (b *builder) join(announce func(string, ...interface{}), format, dest string, stages ...stage.Stage) taskgraph.Action {
	return func(ctx context.Context) error {
		announce(format, dest)
		return stage.Join(ctx, b.notifier, stages...)
	}
}

func (b *builder) styleCompiler() (transform.Transformer, error) {
	prefixer, err := transform.NewAutoprefixer(b.cfg.Styles.Targets)
	if err != nil {
		return nil, &aferrors.ConfigError{Field: "styles.targets", Reason: err.Error()}
	}

	compiler := b.deps.StyleCompiler
	if compiler == nil {
		sass := transform.NewSassCompiler(b.cfg.Styles.Compiler, b.root, b.cfg.Styles.IncludePaths)
		if !sass.Available() {
			logger.Op.WithFields(map[string]interface{}{"compiler": sass.Binary}).Warn("Style compiler not found on PATH, the scss task will fail")
		}
		compiler = sass
	}
	return transform.Chain{compiler, prefixer}, nil
}

func (b *builder) watch(ctx context.Context) error {
	rules := make([]watcher.Rule, len(b.cfg.Watch.Rules))
	for i, r := range b.cfg.Watch.Rules {
		rules[i] = watcher.Rule{Pattern: r.Pattern, Tasks: r.Tasks}
	}
	for _, r := range rules {
		for _, name := range r.Tasks {
			if !b.graph.Has(name) {
				return &aferrors.UnknownTaskError{Name: name, RequiredBy: "watch"}
			}
		}
	}

	open := b.deps.WatchSource
	if open == nil {
		open = func(root string, rules []watcher.Rule) (watcher.Source, error) {
			return watcher.NewFSSource(root, rules)
		}
	}
	src, err := open(b.root, rules)
	if err != nil {
		return &aferrors.IOError{Op: "watch", Path: b.root, Err: eris.Wrap(err, "failed to start file watcher")}
	}
	return watcher.New(b.graph, rules, b.cfg.Watch.Debounce).Run(ctx, src)
}
