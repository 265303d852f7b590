// Package mqtt publishes status snapshots to an MQTT broker and runs
// the resilient periodic publish loop.
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"git.home.luguber.info/inful/worktracker/internal/config"
	werrors "git.home.luguber.info/inful/worktracker/internal/errors"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// disconnectQuiesce is how long paho may spend flushing in-flight
	// messages on disconnect, in milliseconds.
	disconnectQuiesce = 250
)

// brokerClient is the slice of the MQTT client the publisher needs.
// Tests substitute a fake; production uses pahoClient.
type brokerClient interface {
	Connect() error
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Disconnect()
	IsConnected() bool
}

// pahoClient wraps the Eclipse Paho client behind brokerClient.
type pahoClient struct {
	client paho.Client
}

func newPahoClient(cfg config.MQTTConfig, hostID string) *pahoClient {
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(fmt.Sprintf("worktracker-%s", hostID)).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(false). // the publish loop owns reconnect policy
		SetCleanSession(true)

	return &pahoClient{client: paho.NewClient(opts)}
}

func (c *pahoClient) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return werrors.NetworkError(fmt.Errorf("timeout after %v", connectTimeout), "connect to broker")
	}
	if err := token.Error(); err != nil {
		return werrors.NetworkError(err, "connect to broker")
	}
	return nil
}

func (c *pahoClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return werrors.NetworkError(fmt.Errorf("timeout after %v", publishTimeout), "publish status")
	}
	if err := token.Error(); err != nil {
		return werrors.NetworkError(err, "publish status")
	}
	return nil
}

func (c *pahoClient) Disconnect() {
	c.client.Disconnect(disconnectQuiesce)
}

func (c *pahoClient) IsConnected() bool {
	return c.client.IsConnected()
}
