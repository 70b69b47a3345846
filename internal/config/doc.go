// Package config loads and validates tracker configuration with viper and
// go-playground/validator.
//
// Values come from built-in defaults, an optional config.yaml and TRACKER_
// prefixed environment variables (nested keys use underscores, so
// queue.push.concurrency is TRACKER_QUEUE_PUSH_CONCURRENCY).
package config
