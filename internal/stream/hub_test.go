package stream

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"focusquest/internal/models"
	"focusquest/internal/service"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuth map[string]models.Actor

func (a staticAuth) Parse(token string) (models.Actor, error) {
	actor, ok := a[token]
	if !ok {
		return models.Actor{}, errors.New("unknown token")
	}
	return actor, nil
}

func TestHubDeliversToUser(t *testing.T) {
	hub := NewHub(staticAuth{"tok": {ID: "parent-1", Role: models.RoleParent}}, []string{"*"})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=tok"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections("parent-1") == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("someone-else", service.PushMessage{Type: "notification", Data: "ignored"})
	hub.Publish("parent-1", service.PushMessage{Type: "notification", Data: map[string]string{"title": "Medicine due"}})

	var got map[string]interface{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "notification", got["type"])
	assert.Equal(t, map[string]interface{}{"title": "Medicine due"}, got["data"])

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Connections("parent-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRejectsBadToken(t *testing.T) {
	hub := NewHub(staticAuth{}, []string{"*"})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})

	r := httptest.NewRequest("GET", "/", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))
}
