/*
Package config loads the settings used by the pulsegraph command.

# Overview

Settings can come from a YAML or JSON file. Keys that are missing keep the
values from Default(); unknown keys are an error so typos do not pass
silently.

	# pulsegraph.yaml
	presses: 1000
	until: rx
	accelerate: true
	max_presses: 10000000
	timeout: 2m
	log_level: debug
	ledger: ./runs.db

# Usage

	settings, err := config.FromFile("pulsegraph.yaml")
	if err != nil {
	    return err
	}
	if err := settings.Validate(); err != nil {
	    return err
	}
	tally, err := circuit.RunFixed(ctx, settings.Presses, settings.RunOptions()...)

# Type Coercion

Values are decoded with mapstructure in weakly typed mode:
  - numbers may be written as strings ("1000")
  - booleans accept 1/0 and "true"/"false"
  - durations are strings parsed with time.ParseDuration ("30s", "1h30m")
*/
package config
