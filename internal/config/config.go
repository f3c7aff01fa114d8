package config

import (
	"os"
	"strconv"

	"grestat/internal/errors"
)

// Config is the complete pipeline configuration. Every decision the source
// analysis made visually or ambiently (working directory, outlier cutoffs,
// normality screening) is an explicit named field here.
type Config struct {
	Input     InputConfig
	Output    OutputConfig
	Cleaning  CleaningConfig
	Analysis  AnalysisConfig
	Bootstrap BootstrapConfig
}

// InputConfig locates the survey file.
type InputConfig struct {
	// Path to the delimited survey file (.csv or .xlsx), 29 columns with a
	// header row and "NA" missing tokens.
	Path string
	// MissingToken is the literal encoding of an absent value.
	MissingToken string
}

// OutputConfig locates the rendered document set.
type OutputConfig struct {
	Dir string
	// Figures toggles PNG figure rendering (diagnostic plots only).
	Figures bool
}

// CleaningConfig carries the validity predicates. The bounds reproduce the
// cutoffs originally chosen from box plots.
type CleaningConfig struct {
	MaxTestsTaken int     // keep rows with tests_taken < MaxTestsTaken
	MinHours      float64 // keep rows with hours > MinHours (or hours missing)
	MaxHours      float64 // keep rows with hours <= MaxHours (or hours missing)
}

// AnalysisConfig carries test-level knobs.
type AnalysisConfig struct {
	Alpha             float64 // significance level for every decision
	BucketCount       int     // equal-frequency buckets for hours and tests-taken
	MinSamplePaired   int     // below this, a paired test is inconclusive
	MinSampleWilcoxon int     // below this, the AW Wilcoxon is inconclusive
	MinBucketSize     int     // below this, a bucket group test is inconclusive
}

// BootstrapConfig parametrizes the resampled-mean normality screen. The
// original selection criterion was visual; the skewness/kurtosis bounds are
// its explicit replacement.
type BootstrapConfig struct {
	Seed                   int64
	Resamples              int
	SubsampleFraction      float64 // draw size as a share of non-missing observations
	MaxAbsSkewness         float64 // exclude column above this bound
	MaxAbsExcessKurtosis   float64 // exclude column above this bound
	MinObservationsToDraw  int     // below this, skip the screen and keep the column
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	config := &Config{
		Input: InputConfig{
			Path:         os.Getenv("SURVEY_FILE"),
			MissingToken: getEnvOrDefault("MISSING_TOKEN", "NA"),
		},
		Output: OutputConfig{
			Dir:     getEnvOrDefault("REPORT_DIR", "./report"),
			Figures: getEnvBoolOrDefault("REPORT_FIGURES", true),
		},
		Cleaning: CleaningConfig{
			MaxTestsTaken: getEnvIntOrDefault("CLEAN_MAX_TESTS_TAKEN", 15),
			MinHours:      getEnvFloatOrDefault("CLEAN_MIN_HOURS", 0),
			MaxHours:      getEnvFloatOrDefault("CLEAN_MAX_HOURS", 200),
		},
		Analysis: AnalysisConfig{
			Alpha:             getEnvFloatOrDefault("ANALYSIS_ALPHA", 0.05),
			BucketCount:       getEnvIntOrDefault("ANALYSIS_BUCKETS", 3),
			MinSamplePaired:   getEnvIntOrDefault("ANALYSIS_MIN_PAIRED_N", 3),
			MinSampleWilcoxon: getEnvIntOrDefault("ANALYSIS_MIN_WILCOXON_N", 5),
			MinBucketSize:     getEnvIntOrDefault("ANALYSIS_MIN_BUCKET_N", 3),
		},
		Bootstrap: BootstrapConfig{
			Seed:                  getEnvInt64OrDefault("BOOTSTRAP_SEED", 1),
			Resamples:             getEnvIntOrDefault("BOOTSTRAP_RESAMPLES", 10000),
			SubsampleFraction:     getEnvFloatOrDefault("BOOTSTRAP_SUBSAMPLE_FRACTION", 0.6),
			MaxAbsSkewness:        getEnvFloatOrDefault("SCREEN_MAX_ABS_SKEWNESS", 0.5),
			MaxAbsExcessKurtosis:  getEnvFloatOrDefault("SCREEN_MAX_ABS_EXCESS_KURTOSIS", 1.0),
			MinObservationsToDraw: getEnvIntOrDefault("SCREEN_MIN_OBSERVATIONS", 10),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Input.Path == "" {
		return errors.ConfigInvalid("SURVEY_FILE is required")
	}
	if config.Output.Dir == "" {
		return errors.ConfigInvalid("report directory is required")
	}
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("alpha must be in (0,1)")
	}
	if config.Analysis.BucketCount < 2 {
		return errors.ConfigInvalid("bucket count must be at least 2")
	}
	if config.Cleaning.MaxHours <= config.Cleaning.MinHours {
		return errors.ConfigInvalid("hours bounds must satisfy min < max")
	}
	if config.Bootstrap.Resamples < 1 {
		return errors.ConfigInvalid("bootstrap resamples must be positive")
	}
	if config.Bootstrap.SubsampleFraction <= 0 || config.Bootstrap.SubsampleFraction > 1 {
		return errors.ConfigInvalid("bootstrap subsample fraction must be in (0,1]")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
