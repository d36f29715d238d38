// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CompressBackend identifies the tool used by the compress operation.
type CompressBackend string

const (
	// CompressPdfcpu recompresses streams and deduplicates resources in-process.
	CompressPdfcpu CompressBackend = "pdfcpu"
	// CompressGhostscript rewrites the document through ghostscript in a
	// container, downsampling raster images to the quality preset.
	CompressGhostscript CompressBackend = "ghostscript"
)

// PDFConfig holds settings shared by every handler.
type PDFConfig struct {
	// Validation is the pdfcpu validation mode: "relaxed" or "strict".
	Validation string `json:"validation" yaml:"validation" mapstructure:"validation"`
}

// CompressConfig holds settings for the compress operation.
type CompressConfig struct {
	// Backend selects pdfcpu or ghostscript.
	Backend CompressBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Quality is the ghostscript PDFSETTINGS preset: screen, ebook, printer, prepress.
	Quality string `json:"quality" yaml:"quality" mapstructure:"quality"`

	// Image is the container image providing the gs binary.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// VerifyText compares extracted text before and after compression and
	// keeps the original bytes when it differs.
	VerifyText bool `json:"verify_text" yaml:"verify_text" mapstructure:"verify_text"`
}

// WatermarkConfig controls the appearance of the watermark stamp.
type WatermarkConfig struct {
	Font     string  `json:"font" yaml:"font" mapstructure:"font"`
	Points   int     `json:"points" yaml:"points" mapstructure:"points"`
	Opacity  float64 `json:"opacity" yaml:"opacity" mapstructure:"opacity"`
	Rotation float64 `json:"rotation" yaml:"rotation" mapstructure:"rotation"`

	// Color is an RGB triple in 0..1, e.g. "0.5 0.5 0.5".
	Color string `json:"color" yaml:"color" mapstructure:"color"`

	// Uppercase stamps the text in capitals.
	Uppercase bool `json:"uppercase" yaml:"uppercase" mapstructure:"uppercase"`
}

// SecurityConfig holds settings for protect.
type SecurityConfig struct {
	// KeyLength is the AES key length: 128 or 256.
	KeyLength int `json:"key_length" yaml:"key_length" mapstructure:"key_length"`

	// OwnerPassword overrides the owner password. When empty the user
	// password is used for both.
	OwnerPassword string `json:"owner_password,omitempty" yaml:"owner_password,omitempty" mapstructure:"owner_password"`
}

// ServeConfig holds settings for the HTTP surface.
type ServeConfig struct {
	Addr           string   `json:"addr" yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Config groups every setting of pdf-tools.
type Config struct {
	// StateDir holds history.db and session.db.
	StateDir string `json:"state_dir" yaml:"state_dir" mapstructure:"state_dir"`

	// SecretsDir holds password files such as pdf-password.
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`

	// LogLevel is the diagnostic log level: debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	PDF       PDFConfig       `json:"pdf" yaml:"pdf" mapstructure:"pdf"`
	Compress  CompressConfig  `json:"compress" yaml:"compress" mapstructure:"compress"`
	Watermark WatermarkConfig `json:"watermark" yaml:"watermark" mapstructure:"watermark"`
	Security  SecurityConfig  `json:"security" yaml:"security" mapstructure:"security"`
	Serve     ServeConfig     `json:"serve" yaml:"serve" mapstructure:"serve"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() Config {
	return Config{
		StateDir:   ".pdf-tools",
		SecretsDir: ".secrets",
		LogLevel:   "warn",
		PDF: PDFConfig{
			Validation: "relaxed",
		},
		Compress: CompressConfig{
			Backend:    CompressPdfcpu,
			Quality:    "ebook",
			Image:      "minidocks/ghostscript:latest",
			VerifyText: true,
		},
		Watermark: WatermarkConfig{
			Font:      "Helvetica-Bold",
			Points:    48,
			Opacity:   0.2,
			Rotation:  45,
			Color:     "0.5 0.5 0.5",
			Uppercase: true,
		},
		Security: SecurityConfig{
			KeyLength: 256,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8085",
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
			},
		},
	}
}
