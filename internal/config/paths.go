package config

import (
	"fmt"
	"os"
	"path/filepath"

	"evdash/internal/dataset"
)

// Well-known dataset file names inside the data directory.
const (
	DefaultDataDir           = "data"
	DefaultMakerByPlaceFile  = "EV Maker by Place.csv"
	DefaultCategoryFile      = "ev_cat_01-24.csv"
	DefaultSalesFile         = "ev_sales_by_makers_and_cat_15-24.csv"
	DefaultOperationalPCFile = "OperationalPC.csv"
	DefaultVehicleClassFile  = "Vehicle Class - All.csv"
)

// DatasetsConfig locates the five input files.
type DatasetsConfig struct {
	Dir           string `yaml:"dir" envconfig:"DIR"`
	MakerByPlace  string `yaml:"maker_by_place" envconfig:"MAKER_BY_PLACE"`
	Category      string `yaml:"category" envconfig:"CATEGORY"`
	Sales         string `yaml:"sales" envconfig:"SALES"`
	OperationalPC string `yaml:"operational_pc" envconfig:"OPERATIONAL_PC"`
	VehicleClass  string `yaml:"vehicle_class" envconfig:"VEHICLE_CLASS"`
}

// DefaultDatasets returns the well-known file names under DefaultDataDir.
func DefaultDatasets() DatasetsConfig {
	return DatasetsConfig{
		Dir:           DefaultDataDir,
		MakerByPlace:  DefaultMakerByPlaceFile,
		Category:      DefaultCategoryFile,
		Sales:         DefaultSalesFile,
		OperationalPC: DefaultOperationalPCFile,
		VehicleClass:  DefaultVehicleClassFile,
	}
}

// Sources resolves every file against the data directory. Absolute file
// paths are used as they are.
func (d DatasetsConfig) Sources() dataset.Sources {
	return dataset.Sources{
		MakerByPlace:  d.resolve(d.MakerByPlace, DefaultMakerByPlaceFile),
		Category:      d.resolve(d.Category, DefaultCategoryFile),
		Sales:         d.resolve(d.Sales, DefaultSalesFile),
		OperationalPC: d.resolve(d.OperationalPC, DefaultOperationalPCFile),
		VehicleClass:  d.resolve(d.VehicleClass, DefaultVehicleClassFile),
	}
}

func (d DatasetsConfig) resolve(file, fallback string) string {
	if file == "" {
		file = fallback
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(ResolveDir(d.Dir), file)
}

// ResolveDir returns dir when it exists relative to the working directory,
// otherwise the same directory next to the executable. Absolute paths are
// returned unchanged.
func ResolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	exeDir, err := ExecutableDir()
	if err != nil {
		return dir
	}
	candidate := filepath.Join(exeDir, dir)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return dir
}

// ExecutableDir returns the directory of the running binary with symlinks
// resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// EnsureLogDir creates the directory of the log file when logs go to a file.
func (c *Config) EnsureLogDir() error {
	if c.Logging.Output == "console" || c.Logging.FilePath == "" {
		return nil
	}
	dir := filepath.Dir(c.Logging.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return nil
}
