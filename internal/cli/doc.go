// Package cli implements the hostwatch command-line interface.
//
// Each subcommand is a package-level cobra.Command registered with the root
// command in its file's init function. Commands stay thin: they load and
// validate configuration, then hand off to the packages that do the work.
//
// # Command Structure
//
//	hostwatch collect <port>                 - Accept agents and render the host table
//	hostwatch agent <host> <port> <id>       - Sample this machine and push to a collector
//	hostwatch version                        - Print build information
//
// # Configuration
//
// Settings come from defaults, then an optional YAML file (--config,
// ./hostwatch.yaml or ~/.config/hostwatch/config.yaml), then HOSTWATCH_*
// environment variables. Command flags override all of these, but only when
// given explicitly, so a flag's default never masks a configured value.
//
// # Output
//
// Rendered frames go to stdout. Logs go to stderr so a table or JSON stream
// can be piped without interleaving.
//
// # Shutdown
//
// Execute cancels the command context on SIGINT or SIGTERM. The collector
// stops accepting, closes open sessions and waits for them; the agent closes
// its connection and stops retrying.
package cli
