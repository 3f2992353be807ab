package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	require.Equal(t, "projects/p1/topics/domain", resourceName("p1", "topics", "domain"))
	require.Equal(t, "projects/p1/subscriptions/notify", resourceName("p1", "subscriptions", " notify "))
	require.Equal(t, "projects/other/topics/x", resourceName("p1", "topics", "projects/other/topics/x"))
	require.Empty(t, resourceName("p1", "topics", "  "))
	require.Empty(t, resourceName("", "topics", "domain"))
}

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	require.Empty(t, subscriptionNames(config.PubSubConfig{}))
	require.Equal(t, []string{"notify"}, subscriptionNames(config.PubSubConfig{NotificationSubscription: " notify "}))
}

func TestClientOptionsPrefersInlineCredentials(t *testing.T) {
	require.Empty(t, clientOptions(config.GCPConfig{ProjectID: "p1"}))
	require.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: "{}", ApplicationCredentials: "/tmp/creds.json"}), 1)
	require.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/creds.json"}), 1)
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("domain"))
	require.Nil(t, c.Subscription("notify"))
	require.Error(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())
}
