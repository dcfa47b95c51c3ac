package picker

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/mitchellh/mapstructure"
)

// Backend names accepted by New and Detect.
const (
	BackendAuto    = "auto"
	BackendZenity  = "zenity"
	BackendKdialog = "kdialog"
	BackendFzf     = "fzf"
	BackendPrompt  = "prompt"
)

// OptionsFunc returns the raw option table for a backend.
type OptionsFunc func(backend string) map[string]interface{}

// New builds the named backend, decoding its options from raw.
func New(name string, raw map[string]interface{}) (Picker, error) {
	switch name {
	case BackendZenity:
		var opts DialogOptions
		if err := decode(raw, &opts); err != nil {
			return nil, fmt.Errorf("invalid %s options: %w", name, err)
		}
		return NewZenity(opts), nil
	case BackendKdialog:
		var opts DialogOptions
		if err := decode(raw, &opts); err != nil {
			return nil, fmt.Errorf("invalid %s options: %w", name, err)
		}
		return NewKdialog(opts), nil
	case BackendFzf:
		var opts FzfOptions
		if err := decode(raw, &opts); err != nil {
			return nil, fmt.Errorf("invalid %s options: %w", name, err)
		}
		return NewFzf(opts), nil
	case BackendPrompt:
		var opts PromptOptions
		if err := decode(raw, &opts); err != nil {
			return nil, fmt.Errorf("invalid %s options: %w", name, err)
		}
		return NewPrompt(opts), nil
	default:
		return nil, fmt.Errorf("unknown picker %q", name)
	}
}

// Detect returns the preferred backend, or for "auto" (and "") the first
// available of zenity, kdialog, fzf and the terminal prompt. Graphical
// dialogs are only chosen when a display is present.
func Detect(preferred string, options OptionsFunc) (Picker, error) {
	if options == nil {
		options = func(string) map[string]interface{} { return nil }
	}
	if preferred != "" && preferred != BackendAuto {
		return New(preferred, options(preferred))
	}

	candidates := []string{BackendFzf}
	if hasDisplay() {
		candidates = []string{BackendZenity, BackendKdialog, BackendFzf}
	}
	for _, name := range candidates {
		raw := options(name)
		command, _ := raw["command"].(string)
		if command == "" {
			command = name
		}
		if _, err := exec.LookPath(command); err == nil {
			return New(name, raw)
		}
	}
	return New(BackendPrompt, options(BackendPrompt))
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func decode(raw map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}
