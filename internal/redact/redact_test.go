package redact_test

import (
	"testing"

	"github.com/entrhq/voyager/internal/redact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkRedactsDefaultSensitiveKeyCaseInsensitively(t *testing.T) {
	m, err := redact.Compile(redact.Policy{})
	require.NoError(t, err)

	in := map[string]interface{}{"Password": "hunter2", "username": "alice"}
	out := m.Walk(in).(map[string]interface{})

	assert.Equal(t, "[REDACTED]", out["Password"])
	assert.Equal(t, "alice", out["username"])
}

func TestWalkAppliesGlobExtraSensitiveKeys(t *testing.T) {
	m, err := redact.Compile(redact.Policy{ExtraSensitiveKeys: []string{"*_secret"}})
	require.NoError(t, err)

	in := map[string]interface{}{"client_secret": "xyz", "note": "ok"}
	out := m.Walk(in).(map[string]interface{})

	assert.Equal(t, "[REDACTED]", out["client_secret"])
	assert.Equal(t, "ok", out["note"])
}

func TestWalkRecursesIntoArraysAndNestedObjects(t *testing.T) {
	m, err := redact.Compile(redact.Policy{})
	require.NoError(t, err)

	in := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"token": "abc"},
			map[string]interface{}{"token": "def"},
		},
	}
	out := m.Walk(in).(map[string]interface{})
	items := out["items"].([]interface{})

	assert.Equal(t, "[REDACTED]", items[0].(map[string]interface{})["token"])
	assert.Equal(t, "[REDACTED]", items[1].(map[string]interface{})["token"])
}

func TestWalkRedactsTypedTextKeysWhenPolicyEnabled(t *testing.T) {
	m, err := redact.Compile(redact.Policy{RedactTypedText: true})
	require.NoError(t, err)

	in := map[string]interface{}{
		"value": "my typed input",
		"fields": map[string]interface{}{
			"email": "a@b.com",
		},
	}
	out := m.Walk(in).(map[string]interface{})

	assert.Equal(t, "[REDACTED]", out["value"])
	fields := out["fields"].(map[string]interface{})
	assert.Equal(t, "[REDACTED]", fields["email"], "nested children of a typed-text key are redacted too")
}

func TestWalkLeavesTypedTextKeysAloneWhenPolicyDisabled(t *testing.T) {
	m, err := redact.Compile(redact.Policy{RedactTypedText: false})
	require.NoError(t, err)

	in := map[string]interface{}{"text": "hello"}
	out := m.Walk(in).(map[string]interface{})

	assert.Equal(t, "hello", out["text"])
}

func TestWalkPassesThroughNonPlainValuesUnchanged(t *testing.T) {
	m, err := redact.Compile(redact.Policy{})
	require.NoError(t, err)

	in := map[string]interface{}{"count": 3, "enabled": true, "ratio": 1.5, "missing": nil}
	out := m.Walk(in).(map[string]interface{})

	assert.Equal(t, 3, out["count"])
	assert.Equal(t, true, out["enabled"])
	assert.Equal(t, 1.5, out["ratio"])
	assert.Nil(t, out["missing"])
}
