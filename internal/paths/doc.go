// Provides well-known file names, permission modes and XDG locations used
// by forge.
//
// The user-level configuration lives under $XDG_CONFIG_HOME/forge on Linux
// and the platform-native configuration directory elsewhere. A builder.toml
// in the working directory always takes precedence over the user-level one.
package paths
