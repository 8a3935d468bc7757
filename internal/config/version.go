package config

// Version is the vchain binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/vchain/internal/config.Version=<tag>"
var Version = "dev"
