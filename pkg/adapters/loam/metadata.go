package loam

// ScriptMetadata represents the frontmatter of a dialog document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type ScriptMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Start       string `json:"start" mapstructure:"start"`
	Description string `json:"description" mapstructure:"description"`

	// Tags are free-form labels shown by library listings.
	Tags []string `json:"tags,omitempty" mapstructure:"tags"`
}
