package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("should split allowed origins", func(t *testing.T) {
		req := require.New(t)
		c := Config{AllowedOrigins: "http://a.test, http://b.test,,"}
		req.Equal([]string{"http://a.test", "http://b.test"}, c.Origins())
	})

	t.Run("should require a DSN for postgres", func(t *testing.T) {
		req := require.New(t)
		req.Error(Config{StoreDriver: "postgres"}.validate())
		req.NoError(Config{StoreDriver: "postgres", DatabaseDSN: "postgres://x"}.validate())
		req.NoError(Config{StoreDriver: "badger", BadgerFilepath: "/tmp/x"}.validate())
		req.Error(Config{StoreDriver: "mongo"}.validate())
	})
}
