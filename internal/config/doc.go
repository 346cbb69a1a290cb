// Package config provides the configuration of onionsearch: Tor access,
// crawl limits, storage locations, tokenizer flags, ranking parameters and
// risk keyword categories. Values start from NewConfig, are overridden by a
// YAML file and finally by command-line flags.
package config
