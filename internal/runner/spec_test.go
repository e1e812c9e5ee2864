package runner

import (
	"testing"

	v1 "github.com/infracollect/packing/apis/v1"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFormatSpec(t *testing.T) {
	external := &v1.ExternalCompressorSpec{Program: "xz", Suffix: ".xz"}

	tests := []struct {
		name     string
		spec     v1.FormatSpec
		wantKind string
		wantErr  string
	}{
		{name: "zip", spec: v1.FormatSpec{Name: "jar", Zip: &v1.ZipFormatSpec{}}, wantKind: "zip"},
		{name: "plain tar", spec: v1.FormatSpec{Name: "ustar", Tar: &v1.TarFormatSpec{}}, wantKind: "tar"},
		{name: "external", spec: v1.FormatSpec{Name: "xztar", Tar: &v1.TarFormatSpec{External: external}}, wantKind: "tar_external"},
		{name: "codec", spec: v1.FormatSpec{Name: "lz4tar", Tar: &v1.TarFormatSpec{Codec: lo.ToPtr("lz4")}}, wantKind: "tar_codec"},
		{name: "both", spec: v1.FormatSpec{Name: "x", Tar: &v1.TarFormatSpec{}, Zip: &v1.ZipFormatSpec{}}, wantErr: `format "x" sets both tar and zip`},
		{name: "none", spec: v1.FormatSpec{Name: "y"}, wantErr: `format "y" has no type specified`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := ResolveFormatSpec(tt.spec)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, resolved.Kind)
		})
	}
}
