// Package config fills the env-tagged Config structs of this module from the
// process environment.
//
// Every tunable package declares its own struct: pipeline.Config for the API
// base URL and headers, csrf.Config for the token endpoint, idle.Config for
// the idle timeout, poll interval and activity throttle, and redis.Config for
// the optional Redis store. portal.Config embeds them all, so the
// application reads its whole configuration with one call:
//
//	var cfg portal.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// A package can also be configured on its own:
//
//	var session idle.Config
//	config.MustLoad(&session) // SESSION_IDLE_TIMEOUT=15m overrides the 10m default
//	monitor := idle.NewFromConfig(session, store, activity)
//
// The first Load reads a .env file from the working directory when one is
// present. Variables already set in the environment win over the file.
//
// # Caching
//
// The parsed value is kept per struct type. Later Loads of portal.Config
// return the first result even if the environment changed in between.
// Reset drops the cache so the next Load parses again. Tests that call
// t.Setenv use it before and after:
//
//	config.Reset()
//	t.Cleanup(config.Reset)
//	t.Setenv("API_BASE_URL", "https://api.example.test")
//
// Reset does not re-read the .env file.
package config
