package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/events"
	"livepoll/internal/redis"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubBroadcastAndUnregister(t *testing.T) {
	hub := runHub(t)
	pollID := uuid.New()
	channel := redis.ResultsChannel(pollID)
	watcher := NewClient(nil, pollID, channel)
	other := NewClient(nil, uuid.New(), redis.ResultsChannel(uuid.New()))

	hub.Register(watcher)
	hub.Register(other)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.GetChannelSubscriberCount(channel))

	hub.Broadcast(channel, 1, []byte("tally"))
	select {
	case msg := <-watcher.Send:
		assert.Equal(t, "tally", string(msg))
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
	assert.Len(t, other.Send, 0)

	hub.Unregister(watcher)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-watcher.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.GetChannelSubscriberCount(channel))

	// A second unregister is ignored.
	hub.Unregister(watcher)
	hub.Subscribe(watcher, channel)
	require.Eventually(t, func() bool { return len(hub.events) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.GetChannelSubscriberCount(channel))
}

func TestHubRegisterIsAppliedOnReturn(t *testing.T) {
	hub := runHub(t)
	pollID := uuid.New()
	channel := redis.ResultsChannel(pollID)
	c := NewClient(nil, pollID, channel)

	hub.Register(c)
	assert.Equal(t, 1, hub.GetChannelSubscriberCount(channel))
	hub.Broadcast(channel, 1, []byte("first push"))
	require.Len(t, c.Send, 1)
	assert.Equal(t, "first push", string(<-c.Send))
}

func TestClientDropsStaleResults(t *testing.T) {
	c := NewClient(nil, uuid.New())

	assert.True(t, c.SendResults(0, []byte("v0")))
	assert.True(t, c.SendResults(2, []byte("v2")))
	assert.False(t, c.SendResults(1, []byte("v1")))
	assert.False(t, c.SendResults(2, []byte("v2 again")))
	assert.True(t, c.SendResults(3, []byte("v3")))

	require.Len(t, c.Send, 3)
	assert.Equal(t, "v0", string(<-c.Send))
	assert.Equal(t, "v2", string(<-c.Send))
	assert.Equal(t, "v3", string(<-c.Send))
}

func TestHubSendToIgnoresUnregisteredClient(t *testing.T) {
	hub := runHub(t)
	c := NewClient(nil, uuid.New())
	assert.False(t, hub.SendTo(c, 1, []byte("tally")))

	hub.Register(c)
	assert.True(t, hub.SendTo(c, 1, []byte("tally")))
	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, hub.SendTo(c, 2, []byte("late")))
}

func TestHubSubscribeUnsubscribe(t *testing.T) {
	hub := runHub(t)
	c := NewClient(nil, uuid.New())
	hub.Register(c)
	hub.Subscribe(c, "poll:x:results")
	require.Eventually(t, func() bool { return hub.GetChannelSubscriberCount("poll:x:results") == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, c.IsSubscribed("poll:x:results"))

	hub.Unsubscribe(c, "poll:x:results")
	require.Eventually(t, func() bool { return hub.GetChannelSubscriberCount("poll:x:results") == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, c.IsSubscribed("poll:x:results"))
}

type staticResults struct {
	res poll.Results
	err error
}

func (s staticResults) Compute(ctx context.Context, pollID uuid.UUID) (poll.Results, error) {
	if s.err != nil {
		return poll.Results{}, s.err
	}
	res := s.res
	res.PollID = pollID
	return res, nil
}

type recordingViewers struct {
	touched chan string
	left    chan string
}

func (r *recordingViewers) Touch(ctx context.Context, pollID uuid.UUID, viewerID string) error {
	select {
	case r.touched <- viewerID:
	default:
	}
	return nil
}

func (r *recordingViewers) Leave(ctx context.Context, pollID uuid.UUID, viewerID string) error {
	r.left <- viewerID
	return nil
}

func readResults(t *testing.T, conn *websocket.Conn) (events.Envelope, poll.Results) {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	env, res, err := events.DecodeResults(data)
	require.NoError(t, err)
	return env, res
}

func TestLiveHandlerStreamsResults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := runHub(t)
	viewers := &recordingViewers{touched: make(chan string, 4), left: make(chan string, 1)}
	h := NewHandler(hub, staticResults{res: poll.Results{Version: 2, Total: 2}}, viewers, nil)
	r := gin.New()
	r.GET("/v1/polls/:id/live", h.Live)
	srv := httptest.NewServer(r)
	defer srv.Close()

	pollID := uuid.New()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/polls/" + pollID.String() + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	env, first := readResults(t, conn)
	assert.Equal(t, events.EventTypeResultsSnapshot, env.EventType)
	assert.Equal(t, pollID.String(), env.AggregateID)
	assert.Equal(t, pollID, first.PollID)
	assert.Equal(t, int64(2), first.Version)

	channel := redis.ResultsChannel(pollID)
	require.Equal(t, 1, hub.GetChannelSubscriberCount(channel))
	publisher := NewLocalPublisher(hub)
	// An older tally arriving late is skipped.
	require.NoError(t, publisher.PublishResults(context.Background(), poll.Results{PollID: pollID, Version: 1, Total: 1}))
	require.NoError(t, publisher.PublishResults(context.Background(), poll.Results{PollID: pollID, Version: 3, Total: 3}))

	env, pushed := readResults(t, conn)
	assert.Equal(t, events.EventTypeResultsUpdated, env.EventType)
	assert.Equal(t, int64(3), env.Version)
	assert.Equal(t, int64(3), pushed.Total)

	select {
	case <-viewers.touched:
	case <-time.After(time.Second):
		t.Fatal("viewer not registered")
	}

	require.NoError(t, conn.Close())
	select {
	case <-viewers.left:
	case <-time.After(2 * time.Second):
		t.Fatal("viewer not removed")
	}
	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestLiveHandlerUnknownPoll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(runHub(t), staticResults{err: livepoll_errors.ErrNotFound}, nil, nil)
	r := gin.New()
	r.GET("/v1/polls/:id/live", h.Live)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/polls/"+uuid.New().String()+"/live", nil))
	assert.Equal(t, 404, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["code"])
}

// concurrentWriteResults publishes a newer tally while the viewer's first
// tally is being computed, as a vote committed at that moment would.
type concurrentWriteResults struct {
	hub *Hub
}

func (r concurrentWriteResults) Compute(ctx context.Context, pollID uuid.UUID) (poll.Results, error) {
	if err := NewLocalPublisher(r.hub).PublishResults(ctx, poll.Results{PollID: pollID, Version: 5, Total: 5}); err != nil {
		return poll.Results{}, err
	}
	return poll.Results{PollID: pollID, Version: 4, Total: 4}, nil
}

func TestLiveHandlerKeepsWriteDuringFirstTally(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := runHub(t)
	h := NewHandler(hub, concurrentWriteResults{hub: hub}, nil, nil)
	r := gin.New()
	r.GET("/v1/polls/:id/live", h.Live)
	srv := httptest.NewServer(r)
	defer srv.Close()

	pollID := uuid.New()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/polls/" + pollID.String() + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	env, first := readResults(t, conn)
	assert.Equal(t, events.EventTypeResultsUpdated, env.EventType)
	assert.Equal(t, int64(5), first.Total)

	require.NoError(t, NewLocalPublisher(hub).PublishResults(context.Background(), poll.Results{PollID: pollID, Version: 6, Total: 6}))
	env, next := readResults(t, conn)
	assert.Equal(t, int64(6), env.Version)
	assert.Equal(t, int64(6), next.Total)
}

type replaySubscriber struct {
	channel  string
	messages [][]byte
}

func (s replaySubscriber) Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error {
	for _, msg := range s.messages {
		handler(s.channel, msg)
	}
	return nil
}

func TestRedisBridgeOrdersByVersion(t *testing.T) {
	hub := runHub(t)
	pollID := uuid.New()
	channel := redis.ResultsChannel(pollID)
	c := NewClient(nil, pollID, channel)
	hub.Register(c)

	encode := func(version int64) []byte {
		data, err := events.EncodeResults(events.EventTypeResultsUpdated, poll.Results{PollID: pollID, Version: version, Total: version}, time.Now())
		require.NoError(t, err)
		return data
	}
	sub := replaySubscriber{channel: channel, messages: [][]byte{encode(3), encode(2), []byte("garbage"), encode(4)}}
	require.NoError(t, NewRedisBridge(sub, hub, nil).Run(context.Background()))

	require.Len(t, c.Send, 2)
	_, first, err := events.DecodeResults(<-c.Send)
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.Version)
	_, second, err := events.DecodeResults(<-c.Send)
	require.NoError(t, err)
	assert.Equal(t, int64(4), second.Version)
}
