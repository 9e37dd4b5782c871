/*

Package wowsparser wires the container decoder, packet demultiplexer,
entity runtime and battle controller into the public entry point: Parse
a .wowsreplay byte slice (or file) into a replay.Replay.

The package is safe for concurrent use: each call owns its own
battlecontroller.Controller and entity map.

*/
package wowsparser

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/icza/wowsreplay/battlecontroller"
	"github.com/icza/wowsreplay/netpacket"
	"github.com/icza/wowsreplay/replay"
	"github.com/icza/wowsreplay/schema"
	"github.com/icza/wowsreplay/wowscipher"
)

var (
	// ErrNotReplayFile indicates the given file (or byte slice) is not a
	// valid .wowsreplay container.
	ErrNotReplayFile = errors.New("wowsparser: not a replay file")

	// ErrParsing indicates an unexpected error occurred while decoding,
	// which may be due to a corrupt replay or an implementation bug.
	ErrParsing = errors.New("wowsparser: parsing")
)

// Config holds orchestrator configuration.
type Config struct {
	// Schema resolves a replay's client version to its entity
	// definitions and constant tables. Required.
	Schema schema.Provider

	// Period is the snapshot cadence in seconds; 0 disables periodic
	// snapshots entirely (spec.md §4.6, §8 boundary case 10).
	Period float32

	// Strict aborts on the first per-packet recoverable error
	// (spec.md §7) instead of logging and skipping it.
	Strict bool

	// Logger receives structured per-packet skip/recover diagnostics.
	// The zero value is a no-op logger.
	Logger zerolog.Logger

	_ struct{} // To prevent unkeyed literals
}

// ParseFile reads name and parses it with the given schema provider and
// no periodic snapshots.
func ParseFile(name string, prov schema.Provider) (*replay.Replay, error) {
	return ParseFileConfig(name, Config{Schema: prov})
}

// ParseFileConfig reads name and parses it per cfg.
func ParseFileConfig(name string, cfg Config) (*replay.Replay, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("wowsparser: %w", err)
	}
	return ParseConfig(b, cfg)
}

// Parse decodes a .wowsreplay byte slice with the given schema provider
// and no periodic snapshots.
func Parse(b []byte, prov schema.Provider) (*replay.Replay, error) {
	return ParseConfig(b, Config{Schema: prov})
}

// ParseConfig decodes a .wowsreplay byte slice per cfg.
func ParseConfig(b []byte, cfg Config) (*replay.Replay, error) {
	if cfg.Schema == nil {
		return nil, fmt.Errorf("wowsparser: Config.Schema is required")
	}
	runID := uuid.New().String()
	logger := cfg.Logger.With().Str("run_id", runID).Logger()
	return parseProtected(b, cfg, logger)
}

// parseProtected calls parse, but protects the call from panics (input
// is untrusted data), in which case it returns ErrParsing.
func parseProtected(b []byte, cfg Config, logger zerolog.Logger) (r *replay.Replay, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			logger.Error().
				Interface("panic", rec).
				Str("stack", string(buf[:n])).
				Msg("wowsparser: recovered from panic while parsing")
			err = ErrParsing
		}
	}()
	return parse(b, cfg, logger)
}

func parse(b []byte, cfg Config, logger zerolog.Logger) (*replay.Replay, error) {
	container, err := wowscipher.Decode(b)
	if err != nil {
		if errors.Is(err, wowscipher.ErrInvalidSignature) {
			return nil, fmt.Errorf("%w: %v", ErrNotReplayFile, err)
		}
		return nil, err
	}

	version := normalizeVersion(container.ArenaInfo["clientVersionFromXml"])
	ver, err := cfg.Schema.For(version)
	if err != nil {
		return nil, err
	}

	ctrl := battlecontroller.New(battlecontroller.Config{
		Schema: ver,
		Period: cfg.Period,
		Strict: cfg.Strict,
		Logger: logger,
	})

	mapping := netpacket.DefaultMapping12_6_0()
	if err := runDemux(ctrl, container.Stream, mapping, cfg.Strict, logger); err != nil {
		return nil, err
	}

	data, err := ctrl.GetData()
	if err != nil {
		return nil, err
	}

	return &replay.Replay{
		ArenaInfo: container.ArenaInfo,
		Extras:    container.Extras,
		Data:      data,
	}, nil
}

// runDemux frames the inflated stream and dispatches every recognized
// packet to ctrl, applying spec.md §7's strict/non-strict recovery
// policy uniformly across framing, decode and dispatch failures.
func runDemux(ctrl *battlecontroller.Controller, stream []byte, mapping netpacket.Mapping, strict bool, logger zerolog.Logger) error {
	fr := netpacket.NewFrameReader(stream)
	for !fr.Done() {
		frame, err := fr.Next()
		if err != nil {
			if strict {
				return err
			}
			logger.Debug().Err(err).Msg("wowsparser: truncated trailing frame, stopping demux")
			return nil
		}

		rec, exhausted, known, err := netpacket.Decode(frame, mapping)
		if err != nil {
			if strict {
				return fmt.Errorf("wowsparser: decode t=%v type=%#x: %w", frame.Time, frame.Type, err)
			}
			logger.Debug().
				Float32("time", frame.Time).
				Uint32("type", frame.Type).
				Err(err).
				Msg("wowsparser: malformed packet, skipping")
			continue
		}
		if !known {
			if !netpacket.SilentUnknownTags[netpacket.Kind(frame.Type)] {
				logger.Debug().
					Float32("time", frame.Time).
					Uint32("type", frame.Type).
					Msg("wowsparser: unknown packet tag")
			}
			continue
		}
		if !exhausted {
			err := fmt.Errorf("%w: type=%#x at t=%v", netpacket.ErrPayloadNotExhausted, frame.Type, frame.Time)
			if strict {
				return err
			}
			logger.Debug().Err(err).Msg("wowsparser: payload not fully consumed")
		}

		if err := ctrl.Dispatch(rec, frame.Time); err != nil {
			if strict {
				return err
			}
			logger.Debug().
				Float32("time", frame.Time).
				Uint32("type", frame.Type).
				Str("record", fmt.Sprintf("%T", rec)).
				Err(err).
				Msg("wowsparser: dispatch failed, skipping packet")
			continue
		}
	}
	return nil
}

// normalizeVersion turns arena_info's clientVersionFromXml field
// ("12,6,0,1234567") into the dotted form schema providers key their
// versions by (spec.md §4.7).
func normalizeVersion(v any) string {
	s, _ := v.(string)
	return strings.ReplaceAll(s, ",", ".")
}
