package streamadapter

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/agent"
	"github.com/akfldk1028/ARR-sub002/config"
	"github.com/akfldk1028/ARR-sub002/coordinator"
	"github.com/akfldk1028/ARR-sub002/domain"
	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/testutil/mocks"
	"github.com/akfldk1028/ARR-sub002/vectormath"
)

func newStreamFixture(t *testing.T) *Handler {
	t.Helper()
	repo := mocks.NewGraphRepo()
	vec := vectormath.Normalize([]float64{1, 0, 0, 0})
	id := repo.AddParagraph(graph.KindAct, "36", "1", "용도지역의 지정", vec)

	store := domain.NewStore()
	store.Publish([]*domain.State{{
		DomainID: "alpha",
		Name:     "도시계획",
		Centroid: vec,
		Members:  map[string]struct{}{id: {}},
	}})

	provider := &mocks.StaticProvider{Dim: 4}
	searcher := agent.NewSearcher(repo, provider, config.DefaultSearchConfig(), nil, zap.NewNop())
	coord := coordinator.New(store, searcher, provider, nil, repo, config.DefaultCoordinatorConfig(), nil, zap.NewNop())
	return NewHandler(coord, zap.NewNop())
}

func TestStream_EmitsEventsAndTerminatesWithComplete(t *testing.T) {
	srv := httptest.NewServer(newStreamFixture(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"query":"제36조","limit":5}`)))

	var statuses []string
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var ev coordinator.Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		statuses = append(statuses, ev.Status)
		if ev.Status == coordinator.StatusComplete {
			assert.NotEmpty(t, ev.Results)
			break
		}
		if ev.Status == coordinator.StatusError {
			t.Fatalf("stream errored: %+v", ev)
		}
	}

	require.NotEmpty(t, statuses)
	assert.Equal(t, coordinator.StatusStarted, statuses[0])
	assert.Equal(t, coordinator.StatusComplete, statuses[len(statuses)-1])
}

func TestStream_MalformedFrameClosesCleanly(t *testing.T) {
	srv := httptest.NewServer(newStreamFixture(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`not json`)))
	_, _, err = conn.Read(ctx)
	assert.Error(t, err, "the server closes without emitting events")
}
