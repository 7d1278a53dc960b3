package nuc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nilnode/nildb/internal/nuc"
)

func TestCommandAttenuates(t *testing.T) {
	assert.True(t, nuc.Command("nil.db.queries.read").Attenuates("nil.db.queries"))
	assert.True(t, nuc.Command("nil.db.queries").Attenuates("nil.db.queries"))
	assert.False(t, nuc.Command("nil.db.queries").Attenuates("nil.db.queries.read"))
	assert.False(t, nuc.Command("nil.db.users.read").Attenuates("nil.db.queries"))
}
