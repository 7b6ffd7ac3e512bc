package redact

import "regexp"

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys after common key names, in assignments or JSON
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)"?\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Bearer and Basic credentials, e.g. in an Authorization header value
	regexp.MustCompile(`(?i)(Bearer|Basic)\s+[A-Za-z0-9._~+/=-]{16,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// OpenAI/Anthropic style keys
	regexp.MustCompile(`sk-(ant-)?[A-Za-z0-9_-]{20,}`),
}

// queryParam matches credential-like query parameters; the name is kept.
var queryParam = regexp.MustCompile(`(?i)([?&](?:api[_-]?key|key|token|access_token|auth|secret|sig|signature|password)=)[^&#\s"]+`)

// userinfo matches credentials embedded in a URL authority.
var userinfo = regexp.MustCompile(`(//)[^/@\s"]+:[^/@\s"]+@`)

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}

// Key scrubs a cache key or URL before it is logged. Fetch keys embed the
// request URL and its serialized options, so credentials can appear in the
// URL authority, the query string or a header value.
func Key(key string) string {
	key = userinfo.ReplaceAllString(key, "${1}"+placeholder+"@")
	key = queryParam.ReplaceAllString(key, "${1}"+placeholder)
	return Secrets(key)
}
