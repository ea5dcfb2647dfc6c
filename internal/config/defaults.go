package config

// Default source layout of a project.
var (
	defaultStyleSources = []string{"src/scss/**/*.scss"}
	defaultStyleAssets  = []string{"node_modules/owl.carousel/dist/assets/owl.carousel.min.css"}
	defaultIncludePaths = []string{"node_modules"}
	// esbuild engine targets for vendor prefixing; old engines keep every
	// prefix the original browser list asked for.
	defaultStyleTargets = []string{"chrome49", "edge12", "firefox44", "ie11", "ios9", "opera36", "safari9"}

	defaultScriptSources = []string{"src/js/**/*.js"}
	defaultScriptExclude = []string{"src/js/vendor/**"}

	defaultVendorFiles = []string{
		"src/js/vendor/jquery/jquery.color-2.1.2.min.js",
		"node_modules/lethargy/lethargy.min.js",
		"node_modules/owl.carousel/dist/owl.carousel.min.js",
	}

	defaultImageSources = []string{
		"src/img/**/*.gif",
		"src/img/**/*.jpg",
		"src/img/**/*.jpeg",
		"src/img/**/*.png",
		"src/img/**/*.svg",
	}

	defaultCleanDirs             = []string{"dist", "src/stylesheets"}
	defaultPrecompressExtensions = []string{".css", ".js"}
)

// DefaultWatchRules returns the rules of the watch task when none are
// configured.
func DefaultWatchRules() []WatchRule {
	return []WatchRule{
		{Pattern: "src/scss/**/*.scss", Tasks: []string{"compile"}},
		{Pattern: "src/js/**/*.js", Tasks: []string{"javascript"}},
		{Pattern: "src/pages/**/*", Tasks: []string{"pages"}},
	}
}

// applyDefaults fills list-valued settings left empty by every layer.
func (c *Config) applyDefaults() {
	setList(&c.Styles.Sources, defaultStyleSources)
	setList(&c.Styles.Assets, defaultStyleAssets)
	setList(&c.Styles.IncludePaths, defaultIncludePaths)
	setList(&c.Styles.Targets, defaultStyleTargets)

	setList(&c.Scripts.Sources, defaultScriptSources)
	setList(&c.Scripts.Exclude, defaultScriptExclude)
	setCopy(&c.Scripts.Pages, "src/js/pages/**/*.js", "dist/js/pages")
	setCopy(&c.Scripts.Components, "src/js/components/**/*.js", "dist/js/components")
	setCopy(&c.Scripts.Interior, "src/js/interior-pages/**/*.js", "dist/js/interior-pages")

	setList(&c.Vendor.Files, defaultVendorFiles)
	setList(&c.Images.Sources, defaultImageSources)

	setCopy(&c.Fonts, "src/fonts/**/*", "dist/fonts")
	setCopy(&c.Pages, "src/pages/**/*", "dist/pages")

	if len(c.Watch.Rules) == 0 {
		c.Watch.Rules = DefaultWatchRules()
	}

	setList(&c.Clean.Dirs, defaultCleanDirs)
	setList(&c.Precompress.Extensions, defaultPrecompressExtensions)
}

func setList(dst *[]string, def []string) {
	if len(*dst) == 0 {
		*dst = append([]string(nil), def...)
	}
}

func setCopy(dst *Copy, source, dest string) {
	if len(dst.Sources) == 0 {
		dst.Sources = []string{source}
	}
	if dst.Dest == "" {
		dst.Dest = dest
	}
}
