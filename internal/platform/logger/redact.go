package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

// redaction decides what a logged field may reveal. Credentials and contact
// details are dropped; learner and session identifiers are salted and hashed.
type redaction struct {
	enabled bool
	salt    string
	drop    []string
	hash    []string
}

var (
	policyOnce sync.Once
	policy     redaction
)

func activePolicy() redaction {
	policyOnce.Do(func() {
		policy = redactionFromEnv(os.Getenv)
	})
	return policy
}

func redactionFromEnv(getenv func(string) string) redaction {
	r := redaction{
		enabled: true,
		salt:    strings.TrimSpace(getenv("LOG_HASH_SALT")),
		drop:    []string{"token", "authorization", "password", "secret", "cookie", "api_key", "email", "dsn"},
		hash:    []string{"user_id", "session_id"},
	}
	switch strings.ToLower(strings.TrimSpace(getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		r.enabled = false
	}
	return r
}

func sanitizeKVs(kv []interface{}) []interface{} {
	return activePolicy().apply(kv)
}

func (r redaction) apply(kv []interface{}) []interface{} {
	if !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		name := stringify(kv[i])
		out = append(out, name, r.value(normKey(name), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (r redaction) value(key string, val interface{}) interface{} {
	if key != "" {
		if containsAny(key, r.drop) {
			return redacted
		}
		if containsAny(key, r.hash) {
			return r.digest(val)
		}
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(normKey(k), inner)
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func (r redaction) digest(val interface{}) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

func containsAny(key string, frags []string) bool {
	for _, f := range frags {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

func normKey(k string) string { return strings.ToLower(strings.TrimSpace(k)) }

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
