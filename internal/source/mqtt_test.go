package source

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cloudview/internal/cloud"
)

func TestNewMQTTSourceValidation(t *testing.T) {
	_, err := NewMQTTSource(MQTTSourceConfig{
		Topic:   "cloudview/points",
		Handler: func(*cloud.PointCloud) {},
	})
	assert.ErrorContains(t, err, "broker")

	_, err = NewMQTTSource(MQTTSourceConfig{Broker: "tcp://localhost:1883"})
	assert.ErrorContains(t, err, "handler")
}

func TestNewMQTTSourceConnectTimeoutIsNotFatal(t *testing.T) {
	// A listener that accepts and never speaks MQTT keeps the handshake
	// pending past the connect deadline.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	src, err := NewMQTTSource(MQTTSourceConfig{
		Broker:         "tcp://" + ln.Addr().String(),
		Topic:          "cloudview/points",
		Handler:        func(*cloud.PointCloud) {},
		ConnectTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	defer src.Close()

	// The connect keeps retrying in the background.
	assert.False(t, src.Connected())
}
