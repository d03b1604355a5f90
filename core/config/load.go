package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load reads the configuration from path. A missing file yields the
// embedded defaults; a present but malformed or invalid file is an
// error.
func Load(fs afero.Fs, path string) (*Configuration, error) {
	// If given a directory, look for the config file inside it.
	if info, err := fs.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ConfigurationName)
	}

	contents, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	if err != nil {
		return nil, err
	}

	out, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(contents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Initialize writes the embedded default configuration to path so
// users have a template to edit. Refuses to overwrite.
func Initialize(fs afero.Fs, path string) error {
	if ok, _ := afero.Exists(fs, path); ok {
		return os.ErrExist
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, defaultConfigData, 0o644)
}
