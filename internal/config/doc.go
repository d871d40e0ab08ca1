// Package config loads the server configuration.
//
// Values are layered, later sources overriding earlier ones:
//
//  1. defaults in code
//  2. <dir>/base.yaml (or base.json)
//  3. <dir>/<environment>.yaml, where the environment comes from ZEUS_ENV
//  4. environment variables (ZEUS_*, plus SUPABASE_URL, SUPABASE_ANON_KEY
//     and DATABASE_URL)
//
// The directory defaults to ./config and can be moved with ZEUS_CONFIG_DIR.
// In development a ConfigWatcher reloads the files on change and hands the
// new Config to registered callbacks; the server uses this to adjust the log
// level without a restart.
package config
