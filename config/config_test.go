package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Setenv("SECRET_JWT", "s3cret")
	t.Setenv("GEN_AUTH", "mongodb://localhost:27017/?replicaSet=rs0")
	t.Setenv("PORT", "8088")
	t.Setenv("O_ED_TOKEN", "board-token")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", c.JWT.Secret)
	assert.Equal(t, "mongodb://localhost:27017/?replicaSet=rs0", c.Mongo.URI)
	assert.Equal(t, 8088, c.HTTP.Port)
	assert.Equal(t, "board-token", c.Objectiveed.Token)
	assert.Equal(t, 7*24*time.Hour, c.JWT.TTL())
	assert.Equal(t, StoreMongo, c.Store.Driver)
	assert.Equal(t, MailDirect, c.Mail.Mode)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreMemory)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	fpath := filepath.Join(dir, "config.yaml")
	content := []byte(`
store:
  driver: memory
jwt:
  secret: from-file
  expired: 1
mail:
  mode: rabbitmq
rabbitmq:
  queue: welcome
`)
	require.NoError(t, os.WriteFile(fpath, content, 0o600))

	c, err := Load(fpath)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, c.Store.Driver)
	assert.Equal(t, "from-file", c.JWT.Secret)
	assert.Equal(t, time.Hour, c.JWT.TTL())
	assert.Equal(t, MailRabbitMQ, c.Mail.Mode)
	assert.Equal(t, "welcome", c.RabbitMQ.Queue)
	assert.Equal(t, "0.0.0.0:3000", c.HTTP.Addr())
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	c := &Config{JWT: JWT{Secret: "x"}, Store: Store{Driver: "bolt"}, Mail: Mail{Mode: MailDirect}}
	assert.Error(t, c.Validate())
}
