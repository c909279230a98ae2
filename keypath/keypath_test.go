package keypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootIsEmpty(t *testing.T) {
	assert.Equal(t, "", Root().String())
	assert.Nil(t, Root().Segments())
}

func TestKeyAndIndexCompose(t *testing.T) {
	p := Root().Key("emails").Index(0).Key("value")
	assert.Equal(t, "emails[0].value", p.String())
}

func TestAppendDoesNotMutateParent(t *testing.T) {
	base := Root().Key("a")
	child1 := base.Key("b")
	child2 := base.Key("c")
	assert.Equal(t, "a.b", child1.String())
	assert.Equal(t, "a.c", child2.String())
	assert.Equal(t, "a", base.String())
}
