package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReady(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db)

	mock.ExpectPing().SetVal("PONG")
	require.NoError(t, c.Ready(context.Background()))

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	err := c.Ready(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
	assert.Contains(t, err.Error(), "connection refused")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadyNilClientIsDisabledRedis(t *testing.T) {
	var c *Client
	assert.NoError(t, c.Ready(context.Background()))
}

func TestOpenRejectsEmptyAddr(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.ErrorContains(t, err, "empty redis addr")
}
