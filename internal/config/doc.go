// Package config holds the vvreport CLI configuration: built-in defaults,
// the optional .vvreport.yaml file, secrets from the environment and
// validation of the merged result.
package config
