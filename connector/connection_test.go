package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsMalformedURI(t *testing.T) {
	_, err := Connect(context.Background(), Config{URI: "not-a-mongo-uri"})
	require.Error(t, err)
}

func TestConnectRequiresDefaultDatabase(t *testing.T) {
	_, err := Connect(context.Background(), Config{URI: "mongodb://localhost:27017"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default database")
}
