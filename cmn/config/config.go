// Package config provides wordstore's global, JSON-backed runtime
// configuration, loaded once at process start and held for the lifetime
// of the process.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
)

type (
	NMConfig struct {
		Port        int    `json:"nm_port"`
		MetricsPort int    `json:"metrics_port"`
		LogDir      string `json:"log_dir"`
		RegistryDir string `json:"registry_dir"`
		CacheCap    int    `json:"cache_capacity"` // LRU metadata cache entries
	}

	SSConfig struct {
		NMHost        string        `json:"nm_host"`
		NMPort        int           `json:"nm_port"`
		ClientPort    int           `json:"client_port"`
		MetricsPort   int           `json:"metrics_port"`
		LogDir        string        `json:"log_dir"`
		StorageDir    string        `json:"storage_dir"`
		UndoRingCap   int           `json:"undo_ring_cap"`
		StreamPace    time.Duration `json:"stream_pace"` // pacing between words on STREAM
		CheckpointLZ4 bool          `json:"checkpoint_lz4"`
	}
)

func DefaultNM() *NMConfig {
	return &NMConfig{
		Port:        9000,
		MetricsPort: 9100,
		LogDir:      ".",
		RegistryDir: ".",
		CacheCap:    100,
	}
}

func DefaultSS() *SSConfig {
	return &SSConfig{
		NMHost:        "127.0.0.1",
		NMPort:        9000,
		ClientPort:    9001,
		MetricsPort:   9101,
		LogDir:        ".",
		StorageDir:    "./storage",
		UndoRingCap:   50,
		StreamPace:    100 * time.Millisecond,
		CheckpointLZ4: true,
	}
}

// LoadNM reads a JSON config file, falling back to defaults when path is
// empty or the file does not exist -- boot must never fail merely because
// an optional config file is missing.
func LoadNM(path string) (*NMConfig, error) {
	cfg := DefaultNM()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := jsoniter.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadSS(path string) (*SSConfig, error) {
	cfg := DefaultSS()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := jsoniter.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
