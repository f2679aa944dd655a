// Package config provides the configuration of crawldash: where the report
// API lives, how to reach it, and how results are shown.
//
// Values are resolved in increasing precedence: built-in defaults, the YAML
// configuration file, the .env file and the process environment, then
// command line flags.
package config
