package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// setting ties one viper key to its environment names and its flag
type setting struct {
	key   string
	env   []string
	flag  string
	def   any
	usage string
}

var settings = []setting{
	{key: "set_code", env: []string{"SET_CODE"}, flag: "set-code", def: "", usage: "Set code to fetch and montage (e.g. dsk)"},
	{key: "output_root_dir", env: []string{"OUTPUT_ROOT_DIR"}, flag: "output-root", def: "", usage: "Root directory for downloaded art and grouped sheets"},
	{key: "source_images", env: []string{"SOURCE_IMAGES"}, flag: "source-images", def: false, usage: "Fetch card art from the catalog"},
	{key: "generate_montage", env: []string{"GENERATE_MONTAGE"}, flag: "generate-montage", def: false, usage: "Build montage sheets"},
	{key: "catalog_api_url", env: []string{"CATALOG_API_URL", "SCRYFALL_API_URL"}, flag: "catalog-url", def: DefaultCatalogAPIURL, usage: "Catalog API root URL"},
	{key: "montage_input_dir", env: []string{"MONTAGE_IMAGE_INPUT_DIR"}, flag: "montage-input", def: "", usage: "Single folder to montage instead of the per-rarity tree"},
	{key: "montage_output_dir", env: []string{"MONTAGE_IMAGE_OUTPUT_DIR"}, flag: "montage-output", def: "", usage: "Output folder for the single-folder montage"},
	{key: "montage_rows", env: []string{"MONTAGE_ROWS"}, flag: "rows", def: 7, usage: "Rows per montage sheet"},
	{key: "montage_columns", env: []string{"MONTAGE_COLUMNS"}, flag: "columns", def: 10, usage: "Columns per montage sheet"},
	{key: "montage_reserve_blank_cell", env: []string{"MONTAGE_RESERVE_BLANK_CELL"}, flag: "reserve-blank-cell", def: true, usage: "Keep the last cell of every sheet empty"},
	{key: "montage_suffix_position", env: []string{"MONTAGE_SUFFIX_POSITION"}, flag: "suffix-position", def: SuffixAfter, usage: "Sheet index placement: after (name_0) or before (0_name)"},
	{key: "montage_jpeg_quality", env: []string{"MONTAGE_JPEG_QUALITY"}, flag: "jpeg-quality", def: 95, usage: "JPEG quality for montage sheets"},
	{key: "montage_workers", env: []string{"MONTAGE_WORKERS"}, flag: "montage-workers", def: 1, usage: "Rarity groups rendered in parallel"},
	{key: "download_workers", env: []string{"DOWNLOAD_WORKERS"}, flag: "download-workers", def: 1, usage: "Card images downloaded in parallel"},
	{key: "catalog_rate_limit", env: []string{"CATALOG_RATE_LIMIT"}, flag: "rate-limit", def: 10.0, usage: "Requests per second against the catalog (0 disables pacing)"},
	{key: "download_rate_limit", env: []string{"DOWNLOAD_RATE_LIMIT"}, flag: "download-rate-limit", def: 10.0, usage: "Image downloads started per second across all workers (0 disables pacing)"},
	{key: "http_timeout", env: []string{"HTTP_TIMEOUT"}, flag: "http-timeout", def: 30 * time.Second, usage: "Timeout for each HTTP request"},
	{key: "skip_existing", env: []string{"SKIP_EXISTING"}, flag: "skip-existing", def: false, usage: "Keep card images already on disk"},
	{key: "write_manifest", env: []string{"WRITE_MANIFEST"}, flag: "manifest", def: true, usage: "Write cards.parquet next to the downloaded art"},
	{key: "report_path", env: []string{"REPORT_PATH"}, flag: "report", def: "", usage: "Write a YAML run report to this path"},
	{key: "log_level", env: []string{"LOG_LEVEL"}, flag: "log-level", def: "info", usage: "Log level (debug, info, warn, error)"},
}

// RegisterFlags adds one flag per setting to fs
func RegisterFlags(fs *pflag.FlagSet) {
	for _, s := range settings {
		switch def := s.def.(type) {
		case string:
			fs.String(s.flag, def, s.usage)
		case bool:
			fs.Bool(s.flag, def, s.usage)
		case int:
			fs.Int(s.flag, def, s.usage)
		case float64:
			fs.Float64(s.flag, def, s.usage)
		case time.Duration:
			fs.Duration(s.flag, def, s.usage)
		default:
			panic(fmt.Sprintf("config: unsupported default type %T for %s", def, s.key))
		}
	}
}

// Load builds a Config from flags, environment variables and defaults.
// Priority order: changed flags > environment > defaults.
// The adjust functions run before validation so commands can force a stage on.
func Load(fs *pflag.FlagSet, adjust ...func(*Config)) (*Config, error) {
	v, err := newViper(fs)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SetCode:          v.GetString("set_code"),
		OutputRootDir:    v.GetString("output_root_dir"),
		SourceImages:     v.GetBool("source_images"),
		GenerateMontage:  v.GetBool("generate_montage"),
		CatalogAPIURL:    v.GetString("catalog_api_url"),
		MontageInputDir:  v.GetString("montage_input_dir"),
		MontageOutputDir: v.GetString("montage_output_dir"),
		Montage: MontageConfig{
			Rows:             v.GetInt("montage_rows"),
			Columns:          v.GetInt("montage_columns"),
			ReserveBlankCell: v.GetBool("montage_reserve_blank_cell"),
			SuffixPosition:   v.GetString("montage_suffix_position"),
			JPEGQuality:      v.GetInt("montage_jpeg_quality"),
			Workers:          v.GetInt("montage_workers"),
		},
		Fetch: FetchConfig{
			Workers:       v.GetInt("download_workers"),
			RateLimit:     v.GetFloat64("catalog_rate_limit"),
			DownloadRate:  v.GetFloat64("download_rate_limit"),
			HTTPTimeout:   v.GetDuration("http_timeout"),
			SkipExisting:  v.GetBool("skip_existing"),
			WriteManifest: v.GetBool("write_manifest"),
		},
		ReportPath: v.GetString("report_path"),
	}

	for _, fn := range adjust {
		fn(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LogLevel resolves LOG_LEVEL / --log-level alone, without validating the
// rest of the configuration, so logging can be set up before Load runs
func LogLevel(fs *pflag.FlagSet) (string, error) {
	v, err := newViper(fs)
	if err != nil {
		return "", err
	}
	return v.GetString("log_level"), nil
}

func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(append([]string{s.key}, s.env...)...); err != nil {
			return nil, fmt.Errorf("unable to bind %s: %w", s.key, err)
		}
		if fs == nil {
			continue
		}
		if f := fs.Lookup(s.flag); f != nil {
			if err := v.BindPFlag(s.key, f); err != nil {
				return nil, fmt.Errorf("unable to bind flag --%s: %w", s.flag, err)
			}
		}
	}

	return v, nil
}
