package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/selah-im/intake_server/internal/pkg/jwt"
	"github.com/selah-im/intake_server/internal/pkg/pubsub"
	"github.com/selah-im/intake_server/internal/pkg/ws"
)

func setupWebSocketServer(t *testing.T, origins []string) (*httptest.Server, *ws.Hub) {
	t.Helper()

	hub := ws.NewHub(zap.NewNop())
	h := NewWebSocketHandler(hub, testAdminSecret, origins, zap.NewNop())

	router := gin.New()
	router.GET("/admin/ws", h.Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, hub
}

func wsURL(server *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/admin/ws?token=" + token
}

func TestWebSocketHandler_StreamsBroadcasts(t *testing.T) {
	server, hub := setupWebSocketServer(t, nil)

	token, err := jwt.GenerateToken("ahiya", testAdminSecret, 1)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool { return hub.IsOnline("ahiya") }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(&ws.Message{
		Type: pubsub.TypeIntakeProgress,
		Data: &pubsub.ProgressMessage{ApplicationID: "app-1", Step: pubsub.StepDone},
	}))

	var msg struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, pubsub.TypeIntakeProgress, msg.Type)
	assert.Equal(t, "app-1", msg.Data["application_id"])

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RejectsBadToken(t *testing.T) {
	server, _ := setupWebSocketServer(t, nil)

	for _, token := range []string{"", "not.a.jwt"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestWebSocketHandler_ChecksOrigin(t *testing.T) {
	server, _ := setupWebSocketServer(t, []string{"https://selah.im"})

	token, err := jwt.GenerateToken("ahiya", testAdminSecret, 1)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://selah.im")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, token), header)
	require.NoError(t, err)
	conn.Close()
}

func TestWebSocketHandler_EmptySecretRejectsUpgrade(t *testing.T) {
	h := NewWebSocketHandler(ws.NewHub(zap.NewNop()), "", nil, zap.NewNop())
	router := gin.New()
	router.GET("/admin/ws", h.Handle)
	server := httptest.NewServer(router)
	defer server.Close()

	forged := gojwt.NewWithClaims(gojwt.SigningMethodHS256, jwt.Claims{
		Username: "attacker",
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := forged.SignedString([]byte(""))
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
