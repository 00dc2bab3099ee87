package migration

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// legacyNamespace seeds the deterministic ids legacy ObjectIds are mapped to, so a
// rerun resolves every reference to the same row.
var legacyNamespace = uuid.MustParse("6f1c2b1e-3f0a-4d5e-9a47-2c8f1d0b7e55")

// LegacyID maps a legacy reference (ObjectId, its hex string, or an embedded document
// carrying _id) onto a stable UUID. It returns "" when v holds no reference.
func LegacyID(v interface{}) string {
	key := refKey(v)
	if key == "" {
		return ""
	}
	return uuid.NewSHA1(legacyNamespace, []byte(key)).String()
}

func refKey(v interface{}) string {
	switch ref := v.(type) {
	case bson.ObjectID:
		if ref.IsZero() {
			return ""
		}
		return ref.Hex()
	case string:
		return strings.TrimSpace(ref)
	}
	if doc, ok := asDoc(v); ok {
		for _, key := range []string{"user", "userId", "_id", "id"} {
			if id := refKey(doc[key]); id != "" {
				return id
			}
		}
	}
	return ""
}

// asDoc accepts the document shapes the driver produces for nested values.
func asDoc(v interface{}) (bson.M, bool) {
	switch doc := v.(type) {
	case bson.M:
		return doc, true
	case map[string]interface{}:
		return bson.M(doc), true
	case bson.D:
		m := make(bson.M, len(doc))
		for _, e := range doc {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

func asArray(v interface{}) []interface{} {
	switch arr := v.(type) {
	case bson.A:
		return arr
	case []interface{}:
		return arr
	}
	return nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func asBool(v interface{}, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case bson.DateTime:
		return t.Time().UTC(), true
	case time.Time:
		return t.UTC(), true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func firstTime(fallback time.Time, values ...interface{}) time.Time {
	for _, v := range values {
		if t, ok := asTime(v); ok {
			return t
		}
	}
	return fallback
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
