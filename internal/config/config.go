// Package config holds the command line layout of grpothosgen.
package config

import "github.com/pothosware/grpothosgen/internal/cmd"

// Log configures the process logger.
type Log struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" enum:"trace,debug,info,warn,error" env:"GRPOTHOSGEN_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" env:"GRPOTHOSGEN_LOG_FILE"`
	RawFile string `help:"Write the verbatim diagnostics stream to this file" env:"GRPOTHOSGEN_LOG_RAW_FILE"`
}

// CLI is the root kong command.
type CLI struct {
	Config string `help:"Path to a JSON, YAML or TOML configuration file" type:"path" env:"GRPOTHOSGEN_CONFIG"`
	Log    Log    `embed:"" prefix:"log."`

	Generate  cmd.Generate      `cmd:"" help:"Generate Pothos registration source for GNU Radio modules"`
	Scan      cmd.Scan          `cmd:"" help:"Dump parsed header information as JSON"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
}
