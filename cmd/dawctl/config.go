// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stagecraft/dawrpc"
)

type config struct {
	Address     string
	Transport   string
	Company     string
	Application string
	Timeout     time.Duration
	HalfDuplex  bool
	Verbose     bool
}

func defaultConfig() config {
	return config{
		Address:     dawrpc.DefaultAddr,
		Transport:   dawrpc.DefaultTransport,
		Application: "dawctl",
		Timeout:     dawrpc.DefaultSendTimeout,
	}
}

type fileConfig struct {
	Address     string `toml:"address"`
	Transport   string `toml:"transport"`
	Company     string `toml:"company"`
	Application string `toml:"application"`
	Timeout     string `toml:"timeout"`
	HalfDuplex  bool   `toml:"half_duplex"`
	Verbose     bool   `toml:"verbose"`
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("address") {
		addr := strings.TrimSpace(raw.Address)
		if addr != "" {
			cfg.Address = addr
		}
	}

	if meta.IsDefined("transport") {
		cfg.Transport = strings.TrimSpace(raw.Transport)
	}

	if meta.IsDefined("company") {
		cfg.Company = strings.TrimSpace(raw.Company)
	}

	if meta.IsDefined("application") {
		cfg.Application = strings.TrimSpace(raw.Application)
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	if meta.IsDefined("half_duplex") {
		cfg.HalfDuplex = raw.HalfDuplex
	}

	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}

	return cfg, nil
}
