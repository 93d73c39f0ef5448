package secrets

// Rule describes one kind of credential.
type Rule struct {
	ID      string
	Pattern string
	// Keywords, when set, must appear (case-insensitively) somewhere in the
	// text before the pattern is tried.
	Keywords []string
}

// DefaultRules covers the credentials people tend to paste into a sprint
// conversation: AI provider keys first, then common cloud and SCM tokens.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "google-api-key", Pattern: `AIza[A-Za-z0-9_\-]{35}`},
		{ID: "anthropic-api-key", Pattern: `sk-ant-[A-Za-z0-9_\-]{32,}`},
		{ID: "openai-api-key", Pattern: `sk-(?:proj-)?[A-Za-z0-9_\-]{32,}`},
		{ID: "github-token", Pattern: `(?:ghp|gho|ghu|ghs)_[A-Za-z0-9]{36}`},
		{ID: "github-fine-grained", Pattern: `github_pat_[A-Za-z0-9_]{22,}`},
		{ID: "slack-token", Pattern: `xox[baprs]-[A-Za-z0-9\-]{10,}`},
		{ID: "stripe-key", Pattern: `(?:sk|pk)_(?:live|test)_[A-Za-z0-9]{24,}`},
		{
			ID:       "aws-access-key-id",
			Pattern:  `(?:A3T[A-Z0-9]|AKIA|ASIA)[A-Z0-9]{16}`,
			Keywords: []string{"aws", "akia", "asia", "key"},
		},
		{ID: "private-key", Pattern: `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`},
		{ID: "jwt", Pattern: `eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`},
		{
			ID:       "bearer-token",
			Pattern:  `(?i)bearer\s+[A-Za-z0-9_\-\.=]{20,}`,
			Keywords: []string{"bearer"},
		},
		{
			ID:       "database-url",
			Pattern:  `(?i)(?:postgres|postgresql|mysql|mongodb|redis|amqp)://[^:\s]+:[^@\s]+@[^\s]+`,
			Keywords: []string{"://"},
		},
		{
			ID:       "api-key-assignment",
			Pattern:  `(?i)(?:api[_-]?key|secret|password|token)\s*[:=]\s*['"]?[^\s'"]{12,}['"]?`,
			Keywords: []string{"key", "secret", "password", "token"},
		},
	}
}
