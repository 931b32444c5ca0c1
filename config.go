package pagemill

type Config struct {
	Title  string       `json:"title"`
	Source SourceConfig `json:"source"`
	Theme  *Theme       `json:"theme,omitempty"`
}

type SourceConfig struct {
	// Dir is a local content directory.
	Dir string `json:"dir,omitempty"`
	// Clone is a git URL to fetch content from instead of Dir.
	Clone string `json:"clone,omitempty"`
	// Ref is the revision to check out. Empty or "latest" selects the
	// highest non-prerelease version tag, falling back to HEAD.
	Ref string `json:"ref,omitempty"`
	// Path is a subdirectory within the source to treat as the
	// content root.
	Path string `json:"path,omitempty"`
}
