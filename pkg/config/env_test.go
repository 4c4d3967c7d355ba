package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvString(t *testing.T) {
	assert.Equal(t, "wap.txt", GetEnvString("TEST_FILESERVER_FILE", "wap.txt"))

	t.Setenv("TEST_FILESERVER_FILE", "hello.txt")
	assert.Equal(t, "hello.txt", GetEnvString("TEST_FILESERVER_FILE", "wap.txt"))
}

func TestGetEnvNumbers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		check func(t *testing.T)
	}{
		{
			name:  "int",
			value: "8080",
			check: func(t *testing.T) { assert.Equal(t, 8080, GetEnvInt("TEST_NUM", 7777)) },
		},
		{
			name:  "int invalid falls back",
			value: "80a",
			check: func(t *testing.T) { assert.Equal(t, 7777, GetEnvInt("TEST_NUM", 7777)) },
		},
		{
			name:  "int64",
			value: "10485760",
			check: func(t *testing.T) { assert.Equal(t, int64(10485760), GetEnvInt64("TEST_NUM", 1)) },
		},
		{
			name:  "float",
			value: "0.25",
			check: func(t *testing.T) { assert.InDelta(t, 0.25, GetEnvFloat("TEST_NUM", 1), 1e-9) },
		},
		{
			name:  "float invalid falls back",
			value: "fast",
			check: func(t *testing.T) { assert.InDelta(t, 1.0, GetEnvFloat("TEST_NUM", 1), 1e-9) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_NUM", tt.value)
			tt.check(t)
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	assert.True(t, GetEnvBool("TEST_BOOL", true))

	t.Setenv("TEST_BOOL", "false")
	assert.False(t, GetEnvBool("TEST_BOOL", true))

	t.Setenv("TEST_BOOL", "maybe")
	assert.True(t, GetEnvBool("TEST_BOOL", true))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Second, GetEnvDuration("TEST_DURATION", time.Second))
}

func TestGetEnvStringList(t *testing.T) {
	def := []string{"GET", "HEAD"}

	got := GetEnvStringList("TEST_LIST", def)
	assert.Equal(t, def, got)
	got[0] = "PUT"
	assert.Equal(t, "GET", def[0], "default must not be aliased")

	t.Setenv("TEST_LIST", " a, ,b ,")
	assert.Equal(t, []string{"a", "b"}, GetEnvStringList("TEST_LIST", def))

	t.Setenv("TEST_LIST", " , ")
	assert.Equal(t, def, GetEnvStringList("TEST_LIST", def))
}

func TestValidateDurations(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Second))
	assert.Error(t, ValidatePositiveDuration(0))

	assert.NoError(t, ValidateDurationRange(time.Minute, time.Second, time.Hour))
	assert.Error(t, ValidateDurationRange(time.Millisecond, time.Second, time.Hour))
	assert.Error(t, ValidateDurationRange(2*time.Hour, time.Second, time.Hour))
	assert.Error(t, ValidateDurationRange(time.Minute, time.Hour, time.Second))
}
