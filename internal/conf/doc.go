// Package conf reads the settings of the configurator command itself.
//
// These settings only control how the command behaves (log level, merge
// strategy, output format, enabled loaders); the configuration files the
// command inspects are handled by the manager package.
//
// # Usage
//
//	cs := &conf.ConfigSource{
//	    Path:      conf.DefaultPath,
//	    DropInDir: conf.DefaultDropInDir,
//	}
//	settings, err := cs.Read()
//
// # Load Order
//
// Settings are applied in three layers:
//
//  1. Embedded defaults (defaults.toml)
//  2. Main settings file, /etc/configurator/config.toml by default
//  3. Drop-in files, *.toml in the drop-in directory, in lexicographic order
//
// A missing main file or drop-in directory is not an error. A file that
// exists but does not parse is.
//
// # Internal Architecture
//
//   - configDTO: internal struct with pointer fields for TOML parsing.
//     Pointers distinguish "not set" (nil) from "set to zero value", so a
//     drop-in can clear the extension list with `extensions = []`.
//
//   - Config: public struct with value fields. Its Update method applies
//     the set fields of a DTO.
//
//   - ConfigSource: finds and orders the layers and merges them.
package conf
