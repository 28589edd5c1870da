package cmd

import "fmt"

// ExitConfig is the process exit code for unusable configuration.
const ExitConfig = 2

// ConfigError is a fatal configuration problem. kong uses ExitCode when the
// error reaches FatalIfErrorf.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("configuration: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }
func (e *ConfigError) ExitCode() int { return ExitConfig }
