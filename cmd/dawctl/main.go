// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// dawctl runs one scripting command against a local DAW host:
//
//	dawctl [-config dawctl.toml] [-addr host:port] <command>
//
// Commands: ready, version, session-name, session-info, tracks, play, stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/stagecraft/dawrpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dawctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a toml config file")
		addr       = flag.String("addr", "", "host address (overrides config)")
		verbose    = flag.Bool("v", false, "log every command exchange")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: dawctl [flags] <ready|version|session-name|session-info|tracks|play|stop>")
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			return err
		}
	}
	if *addr != "" {
		cfg.Address = *addr
	}
	if *verbose {
		cfg.Verbose = true
	}

	log := zerolog.Nop()
	if cfg.Verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}

	opts := []dawrpc.Option{
		dawrpc.WithTransport(cfg.Transport),
		dawrpc.WithIdentity(cfg.Company, cfg.Application),
		dawrpc.WithTimeout(cfg.Timeout),
		dawrpc.WithLogger(log),
	}
	if cfg.HalfDuplex {
		opts = append(opts, dawrpc.WithHalfDuplex())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+10*time.Second)
	defer cancel()

	engine, err := dawrpc.Open(ctx, cfg.Address, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	switch cmd := flag.Arg(0); cmd {
	case "ready":
		if err := engine.HostReady(ctx); err != nil {
			return err
		}
		fmt.Println("host ready")

	case "version":
		v, err := engine.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)

	case "session-name":
		name, err := engine.SessionName(ctx)
		if err != nil {
			return err
		}
		fmt.Println(name)

	case "session-info":
		name, err := engine.SessionName(ctx)
		if err != nil {
			return err
		}
		path, err := engine.SessionPath(ctx)
		if err != nil {
			return err
		}
		rate, err := engine.SessionSampleRate(ctx)
		if err != nil {
			return err
		}
		length, err := engine.SessionLength(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("name:        %s\npath:        %s\nsample rate: %s\nlength:      %s\n",
			name, path, rate, length)

	case "tracks":
		tracks, err := engine.TrackList(ctx)
		if err != nil {
			return err
		}
		for _, tr := range tracks {
			fmt.Printf("%3d  %-10s %s\n", tr.Index, tr.Type, tr.Name)
		}

	case "play", "stop":
		state, err := engine.TransportState(ctx)
		if err != nil {
			return err
		}
		playing := state == dawrpc.TransportPlaying || state == dawrpc.TransportRecording
		if (cmd == "play") == playing {
			fmt.Printf("transport already %s\n", state)
			return nil
		}
		if err := engine.TogglePlayState(ctx); err != nil {
			return err
		}
		fmt.Println("ok")

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
