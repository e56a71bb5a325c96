package browser

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventSession(bodies map[network.RequestID][]byte) *Session {
	s := &Session{
		log:     zerolog.Nop(),
		pending: make(map[network.RequestID]string),
	}
	s.fetchBody = func(reqID network.RequestID) ([]byte, error) {
		body, ok := bodies[reqID]
		if !ok {
			return nil, errors.New("no data found for resource")
		}
		return body, nil
	}
	return s
}

type recordedResponse struct {
	url  string
	body string
}

type responseRecorder struct {
	mu  sync.Mutex
	got []recordedResponse
}

func (r *responseRecorder) handle(url string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, recordedResponse{url: url, body: string(body)})
}

func (r *responseRecorder) snapshot() []recordedResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedResponse(nil), r.got...)
}

func apiResponse(id network.RequestID, url string) *network.EventResponseReceived {
	return &network.EventResponseReceived{
		RequestID: id,
		Type:      network.ResourceTypeXHR,
		Response:  &network.Response{URL: url},
	}
}

func TestSession_BodyFetchedOnlyAfterLoadingFinished(t *testing.T) {
	s := newEventSession(map[network.RequestID][]byte{
		"r1": []byte(`{"data": {}}`),
	})
	rec := &responseRecorder{}
	s.Listen(rec.handle)

	s.onEvent(&network.EventRequestWillBeSent{RequestID: "r1"})
	s.onEvent(apiResponse("r1", "https://dutchie.com/graphql"))

	// Headers arrived but the body is still streaming; nothing is delivered.
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	s.onEvent(&network.EventLoadingFinished{RequestID: "r1"})
	s.WaitSettle(2 * time.Second)

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "https://dutchie.com/graphql", got[0].url)
	assert.Equal(t, `{"data": {}}`, got[0].body)
}

func TestSession_WaitSettleCoversBodyDelivery(t *testing.T) {
	// WaitSettle must not declare quiet while a fetched body has yet to reach
	// the handler, so a snapshot taken right after is complete.
	s := newEventSession(map[network.RequestID][]byte{"r1": []byte(`{}`)})

	delivered := make(chan struct{})
	s.Listen(func(string, []byte) {
		time.Sleep(50 * time.Millisecond)
		close(delivered)
	})

	s.onEvent(&network.EventRequestWillBeSent{RequestID: "r1"})
	s.onEvent(apiResponse("r1", "https://dutchie.com/api/menu"))
	s.onEvent(&network.EventLoadingFinished{RequestID: "r1"})

	s.WaitSettle(2 * time.Second)
	select {
	case <-delivered:
	default:
		t.Fatal("WaitSettle returned before the response body reached the handler")
	}
}

func TestSession_FailedRequestNeverDelivered(t *testing.T) {
	s := newEventSession(map[network.RequestID][]byte{"r1": []byte(`{}`)})
	rec := &responseRecorder{}
	s.Listen(rec.handle)

	s.onEvent(&network.EventRequestWillBeSent{RequestID: "r1"})
	s.onEvent(apiResponse("r1", "https://dutchie.com/graphql"))
	s.onEvent(&network.EventLoadingFailed{RequestID: "r1"})
	// A later loadingFinished for the same ID must find nothing pending.
	s.onEvent(&network.EventLoadingFinished{RequestID: "r1"})

	s.WaitSettle(time.Second)
	assert.Empty(t, rec.snapshot())
}

func TestSession_NonAPIResponsesIgnored(t *testing.T) {
	s := newEventSession(map[network.RequestID][]byte{
		"img": []byte("png"),
		"doc": []byte("html"),
	})
	rec := &responseRecorder{}
	s.Listen(rec.handle)

	s.onEvent(&network.EventRequestWillBeSent{RequestID: "img"})
	s.onEvent(&network.EventResponseReceived{
		RequestID: "img",
		Type:      network.ResourceTypeImage,
		Response:  &network.Response{URL: "https://dutchie.com/api/logo.png"},
	})
	s.onEvent(&network.EventRequestWillBeSent{RequestID: "doc"})
	s.onEvent(apiResponse("doc", "https://dutchie.com/dispensary/quincy"))
	s.onEvent(&network.EventLoadingFinished{RequestID: "img"})
	s.onEvent(&network.EventLoadingFinished{RequestID: "doc"})

	s.WaitSettle(time.Second)
	assert.Empty(t, rec.snapshot(), "non-XHR and non-API URLs are never delivered")
}

func TestSession_FetchErrorDropped(t *testing.T) {
	s := newEventSession(nil)
	rec := &responseRecorder{}
	s.Listen(rec.handle)

	s.onEvent(&network.EventRequestWillBeSent{RequestID: "r1"})
	s.onEvent(apiResponse("r1", "https://dutchie.com/graphql"))
	s.onEvent(&network.EventLoadingFinished{RequestID: "r1"})

	s.WaitSettle(time.Second)
	assert.Empty(t, rec.snapshot())
}
