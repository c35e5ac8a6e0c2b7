package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig is the subset of the configuration that may change
// while the receiver runs. Strip geometry, drivers and the serial link
// are not part of it.
type RuntimeConfig struct {
	Brightness     float64         `json:"Brightness"`
	AllowOverdrive bool            `json:"AllowOverdrive"`
	Animation      AnimationConfig `json:"Animation"`
	Palette        []ColorConfig   `json:"Palette"`
	NightDim       NightDimConfig  `json:"NightDim"`
}

// ConfigHandler serves the runtime configuration of cfile on GET and
// stores a modified one on POST. Storing rewrites the file, which in
// turn triggers the Watcher.
func ConfigHandler(cfile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getConfigHandler(w, cfile)
		case http.MethodPost:
			setConfigHandler(w, r, cfile)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func getConfigHandler(w http.ResponseWriter, cfile string) {
	slog.Debug("Handling GET /api/config request")
	conf, err := ReadConfig(cfile)
	if err != nil {
		slog.Error("Failed to read config file for API", "error", err)
		http.Error(w, "Failed to read configuration", http.StatusInternalServerError)
		return
	}

	rc := RuntimeConfig{
		Brightness:     conf.Strip.Brightness,
		AllowOverdrive: conf.Strip.AllowOverdrive,
		Animation:      conf.Animation,
		Palette:        conf.Palette,
		NightDim:       conf.NightDim,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rc); err != nil {
		slog.Error("Failed to encode runtime config to JSON", "error", err)
	}
}

func setConfigHandler(w http.ResponseWriter, r *http.Request, cfile string) {
	slog.Info("Handling POST /api/config request")
	defer r.Body.Close()
	var rc RuntimeConfig
	if err := json.NewDecoder(r.Body).Decode(&rc); err != nil {
		slog.Error("Failed to decode incoming JSON", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	conf, err := ReadConfig(cfile)
	if err != nil {
		slog.Error("Failed to read existing config for update", "error", err)
		http.Error(w, "Failed to read configuration", http.StatusInternalServerError)
		return
	}
	conf.Strip.Brightness = rc.Brightness
	conf.Strip.AllowOverdrive = rc.AllowOverdrive
	conf.Animation = rc.Animation
	conf.Palette = rc.Palette
	conf.NightDim = rc.NightDim

	if err := conf.Validate(); err != nil {
		slog.Error("Validation failed for new config", "error", err)
		http.Error(w, fmt.Sprintf("Invalid configuration: %v", err), http.StatusBadRequest)
		return
	}
	data, err := yaml.Marshal(conf)
	if err != nil {
		slog.Error("Failed to marshal merged config to YAML", "error", err)
		http.Error(w, "Failed to prepare configuration for saving", http.StatusInternalServerError)
		return
	}
	if err := os.WriteFile(cfile, data, 0o644); err != nil {
		slog.Error("Failed to write updated config file", "error", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}
	slog.Info("Successfully updated config file, receiver will reload")
	fmt.Fprint(w, "Configuration updated successfully.")
}
