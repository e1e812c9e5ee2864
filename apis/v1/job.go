package v1

const PackJobKind = "PackJob"

type PackJob struct {
	Kind     string      `yaml:"kind" json:"kind" validate:"required,eq=PackJob"`
	Metadata Metadata    `yaml:"metadata" json:"metadata"`
	Spec     PackJobSpec `yaml:"spec" json:"spec"`
}

type Metadata struct {
	Name string `yaml:"name" json:"name" validate:"required"`
}

type PackJobSpec struct {
	// Formats are registered before any archive is built. A format named like a
	// built-in replaces it.
	Formats []FormatSpec `yaml:"formats,omitempty" json:"formats,omitempty" validate:"dive"`

	// Unregister lists formats removed after Formats are registered.
	Unregister []string `yaml:"unregister,omitempty" json:"unregister,omitempty" validate:"dive,required"`

	Archives []ArchiveSpec `yaml:"archives" json:"archives" validate:"required,min=1,dive"`
	Output   *OutputSpec   `yaml:"output,omitempty" json:"output,omitempty"`
}

// FormatSpec declares a custom archive format (one of Tar or Zip should be set).
type FormatSpec struct {
	Name       string         `yaml:"name" json:"name" validate:"required"`
	Extensions []string       `yaml:"extensions" json:"extensions" validate:"required,min=1,dive,startswith=.,min=2"`
	Tar        *TarFormatSpec `yaml:"tar,omitempty" json:"tar,omitempty"`
	Zip        *ZipFormatSpec `yaml:"zip,omitempty" json:"zip,omitempty"`
}

// TarFormatSpec configures the compression applied to the tarball. Leave both
// fields empty for a plain tar.
type TarFormatSpec struct {
	External *ExternalCompressorSpec `yaml:"external,omitempty" json:"external,omitempty" validate:"excluded_with=Codec"`
	Codec    *string                 `yaml:"codec,omitempty" json:"codec,omitempty" validate:"omitnil,oneof=gzip zstd lz4"`
}

// ExternalCompressorSpec runs Program (or the first of Preferred found on PATH)
// with Args followed by the tarball path. The tool is expected to write
// <tarball><Suffix> and remove the tarball.
type ExternalCompressorSpec struct {
	Program   string   `yaml:"program" json:"program" validate:"required"`
	Preferred []string `yaml:"preferred,omitempty" json:"preferred,omitempty"`
	Args      []string `yaml:"args,omitempty" json:"args,omitempty"`
	Suffix    string   `yaml:"suffix" json:"suffix" validate:"required,startswith=."`
}

type ZipFormatSpec struct{}

type ArchiveSpec struct {
	ID      string `yaml:"id" json:"id" validate:"required"`
	Archive string `yaml:"archive" json:"archive" validate:"required" template:""`
	Target  string `yaml:"target" json:"target" validate:"required" template:""`
}

// OutputSpec configures where built archives are published. Archives stay where
// they were built when no sink is set.
type OutputSpec struct {
	Sink *SinkSpec `yaml:"sink,omitempty" json:"sink,omitempty"`
}

// SinkSpec configures the output sink (one of the fields should be set).
type SinkSpec struct {
	Filesystem *FilesystemSinkSpec `yaml:"filesystem,omitempty" json:"filesystem,omitempty" validate:"excluded_with=S3"`
	S3         *S3SinkSpec         `yaml:"s3,omitempty" json:"s3,omitempty"`
}

type FilesystemSinkSpec struct {
	// Path is the base directory (default: working directory).
	Path *string `yaml:"path,omitempty" json:"path,omitempty" template:""`
	// Prefix is joined to Path.
	Prefix *string `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
}

type S3SinkSpec struct {
	Bucket         string         `yaml:"bucket" json:"bucket" validate:"required" template:""`
	Region         *string        `yaml:"region,omitempty" json:"region,omitempty" template:""`
	Endpoint       *string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty" template:""`
	Prefix         *string        `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
	ForcePathStyle bool           `yaml:"force_path_style,omitempty" json:"force_path_style,omitempty"`
	Credentials    *S3Credentials `yaml:"credentials,omitempty" json:"credentials,omitempty"`
}

type S3Credentials struct {
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id" validate:"required" template:""`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key" validate:"required" template:""`
}
