// Package seed loads YAML fixtures of characters and encounters into a
// running initiative service. Runs are idempotent: characters are upserted
// and encounters that already exist are left alone.
package seed
