package infra

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	n := ObjectName("ordenes/OT-000123", "Foto Antes.JPG")
	assert.True(t, strings.HasPrefix(n, "ordenes/OT-000123/"))
	assert.True(t, strings.HasSuffix(n, ".jpg"))

	otro := ObjectName("ordenes/OT-000123", "Foto Antes.JPG")
	assert.NotEqual(t, n, otro)

	sinExt := ObjectName("flujo", "documento")
	assert.False(t, strings.Contains(sinExt[len("flujo/"):], "."))
}
