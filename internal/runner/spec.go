package runner

import (
	"fmt"

	v1 "github.com/infracollect/packing/apis/v1"
)

// ResolvedSpec holds a kind identifier and the spec for that kind.
type ResolvedSpec struct {
	Kind string
	Spec any
}

// ResolveFormatSpec extracts the builder kind from a v1.FormatSpec.
// Exactly one of tar or zip must be set.
func ResolveFormatSpec(f v1.FormatSpec) (ResolvedSpec, error) {
	switch {
	case f.Tar != nil && f.Zip != nil:
		return ResolvedSpec{}, fmt.Errorf("format %q sets both tar and zip", f.Name)
	case f.Tar != nil && f.Tar.External != nil:
		return ResolvedSpec{Kind: "tar_external", Spec: f.Tar.External}, nil
	case f.Tar != nil && f.Tar.Codec != nil:
		return ResolvedSpec{Kind: "tar_codec", Spec: *f.Tar.Codec}, nil
	case f.Tar != nil:
		return ResolvedSpec{Kind: "tar", Spec: f.Tar}, nil
	case f.Zip != nil:
		return ResolvedSpec{Kind: "zip", Spec: f.Zip}, nil
	default:
		return ResolvedSpec{}, fmt.Errorf("format %q has no type specified", f.Name)
	}
}
