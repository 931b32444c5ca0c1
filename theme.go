package pagemill

import "dario.cat/mergo"

// Theme is the theme context for a page or subtree. All fields are
// optional; an unset field inherits its value from the parent context
// when the tree is normalized.
type Theme struct {
	Breadcrumb  *bool  `json:"breadcrumb,omitempty" yaml:"breadcrumb"`
	Collapsed   *bool  `json:"collapsed,omitempty" yaml:"collapsed"`
	Footer      *bool  `json:"footer,omitempty" yaml:"footer"`
	Layout      string `json:"layout,omitempty" yaml:"layout"`
	Navbar      *bool  `json:"navbar,omitempty" yaml:"navbar"`
	Pagination  *bool  `json:"pagination,omitempty" yaml:"pagination"`
	Sidebar     *bool  `json:"sidebar,omitempty" yaml:"sidebar"`
	Timestamp   *bool  `json:"timestamp,omitempty" yaml:"timestamp"`
	Toc         *bool  `json:"toc,omitempty" yaml:"toc"`
	Typesetting string `json:"typesetting,omitempty" yaml:"typesetting"`
}

// DefaultTheme returns the fully populated theme used as the root
// context when no site-wide overrides are configured.
func DefaultTheme() Theme {
	return Theme{
		Breadcrumb:  boolRef(true),
		Collapsed:   boolRef(false),
		Footer:      boolRef(true),
		Layout:      "default",
		Navbar:      boolRef(true),
		Pagination:  boolRef(true),
		Sidebar:     boolRef(true),
		Timestamp:   boolRef(true),
		Toc:         boolRef(true),
		Typesetting: "default",
	}
}

// Extend returns the context that results from applying override on
// top of t. Fields that override leaves unset keep their inherited
// value.
func (t Theme) Extend(override *Theme) Theme {
	if override == nil {
		return t
	}

	merged := *override

	// WithoutDereference keeps set pointer fields as-is, so an
	// explicit false override is not mistaken for an empty value.
	err := mergo.Merge(&merged, t, mergo.WithoutDereference)
	if err != nil {
		// Both operands are plain Theme values, the merge cannot
		// fail.
		panic("merge theme: " + err.Error())
	}

	return merged
}

func boolRef(v bool) *bool {
	return &v
}

func enabled(v *bool) bool {
	return v == nil || *v
}
