package handlers

import (
	"context"

	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/anonto42/tracle/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelPage(t *testing.T) {
	a := newTestApp(t)
	owner := a.member(t, "creator")
	fan := a.member(t, "fan")
	first := a.video(t, owner, "First", true)
	a.video(t, owner, "Second", true)
	a.video(t, owner, "Draft", false)
	require.NoError(t, a.db.Model(&models.Video{}).Where("id = ?", first.ID).Update("views", 7).Error)
	require.NoError(t, a.subscriptions.Subscribe(context.Background(), owner.channel.ID, fan.channel.ID))

	channelURL := fmt.Sprintf("/channel/%d", owner.channel.ID)
	rec := a.get(t, channelURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "channel.html", a.render.name)
	assert.Len(t, a.render.data["videos"].([]models.Video), 2)
	assert.Equal(t, int64(7), a.render.data["total_views"])
	assert.Equal(t, int64(1), a.render.data["subscriber_count"])
	assert.Equal(t, false, a.render.data["is_subscribed"])

	a.get(t, channelURL, fan)
	assert.Equal(t, true, a.render.data["is_subscribed"])

	assert.Equal(t, http.StatusNotFound, a.get(t, "/channel/999", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.get(t, "/channel/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.get(t, "/channel/18446744073709551615", nil).Code)
}

func TestToggleSubscription(t *testing.T) {
	a := newTestApp(t)
	owner := a.member(t, "creator")
	fan := a.member(t, "fan")
	subscribeURL := fmt.Sprintf("/channel/%d/subscribe", owner.channel.ID)

	rec := a.post(t, subscribeURL, url.Values{}, fan)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/channel/%d", owner.channel.ID), rec.Header().Get(echo.HeaderLocation))
	subscribed, err := a.subscriptions.IsSubscribed(context.Background(), owner.channel.ID, fan.channel.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)

	rec = a.post(t, subscribeURL, url.Values{"next": {"/watch?v=abc"}}, fan)
	assert.Equal(t, "/watch?v=abc", rec.Header().Get(echo.HeaderLocation))
	subscribed, err = a.subscriptions.IsSubscribed(context.Background(), owner.channel.ID, fan.channel.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)

	rec = a.post(t, subscribeURL, url.Values{"next": {"https://evil.io"}}, fan)
	assert.Equal(t, fmt.Sprintf("/channel/%d", owner.channel.ID), rec.Header().Get(echo.HeaderLocation))

	rec = a.post(t, subscribeURL, url.Values{}, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	count, err := a.subscriptions.CountSubscribers(context.Background(), owner.channel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChannelsList(t *testing.T) {
	a := newTestApp(t)
	a.member(t, "zeta")
	a.member(t, "alpha")

	a.get(t, "/channels", nil)
	assert.Equal(t, "channels.html", a.render.name)
	channels := a.render.data["channels"].([]models.Channel)
	require.Len(t, channels, 2)
	assert.Equal(t, "alpha", channels[0].Name)
}
