// Package config loads and validates the host configuration file.
package config

import (
	_ "embed"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

// ConfigurationName is the file name looked up in the config
// directory.
const ConfigurationName = "config.yaml"

type Configuration struct {
	// Prompt is the prompt template. {cwd} and {venv} are substituted
	// by the host before display.
	Prompt string `json:"prompt" validate:"required"`

	// HistoryFile is where command history persists between
	// sessions, relative paths resolving against $HOME.
	HistoryFile string `json:"history_file"`

	// HistorySize caps the number of retained history lines.
	HistorySize int `json:"history_size" validate:"gte=0"`

	// InitFile is a script of commands run line by line at session
	// start, before the first prompt.
	InitFile string `json:"init_file"`

	// Aliases are predefined alias definitions loaded into the
	// session.
	Aliases map[string]string `json:"aliases"`

	// ToolboxPath pins the bundled multi-call binary. Empty means
	// autodetect.
	ToolboxPath string `json:"toolbox_path"`

	// ScriptHosts maps a file extension to the interpreter argv that
	// runs files with that extension.
	ScriptHosts map[string][]string `json:"script_hosts"`

	// AuditLog is the JSON-lines session audit file. Empty disables
	// auditing.
	AuditLog string `json:"audit_log"`

	// LogLevel controls host diagnostics.
	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Default returns the embedded default configuration.
func Default() (*Configuration, error) {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
