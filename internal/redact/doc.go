// Package redact removes credentials from cache keys and URLs before they
// are written to logs.
//
// Fetch cache keys embed the request URL and its serialized options, so a
// key can carry URL userinfo, credential query parameters (token, key,
// signature, ...) or header values such as Authorization. Detection uses
// regex heuristics for common secret shapes: bearer/basic credentials, JWTs,
// AWS access key IDs and provider-specific tokens (OpenAI, Anthropic,
// GitHub, Slack). Matches are replaced with [REDACTED].
package redact
