package jetstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/messaging"
	"github.com/babyregistry/registry/internal/mocks"
	natspub "github.com/babyregistry/registry/internal/providers/jetstream"
)

func newTestPublisher(t *testing.T, prefix string) (messaging.Publisher, *mocks.MockJetStream, *mocks.MockNatsConn) {
	ctrl := gomock.NewController(t)
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)

	natsJS.EXPECT().
		Connect("nats://localhost:4222", gomock.Any()).
		Return(nc, js, nil)

	p, err := natspub.NewPublisher(natspub.Config{
		URL:           "nats://localhost:4222",
		StreamName:    "REGISTRY_EVENTS",
		SubjectPrefix: prefix,
	}, natsJS)
	require.NoError(t, err)
	return p, js, nc
}

func TestPublishSyncResult_Subjects(t *testing.T) {
	tests := []struct {
		name    string
		result  *domain.SyncResult
		subject string
	}{
		{
			name:    "success",
			result:  &domain.SyncResult{RunID: "r1", Success: true},
			subject: "registry.sync.success",
		},
		{
			name:    "failure",
			result:  &domain.SyncResult{RunID: "r2", Error: "boom"},
			subject: "registry.sync.failure",
		},
		{
			name:    "skipped",
			result:  &domain.SyncResult{RunID: "r3", Success: true, Skipped: true},
			subject: "registry.sync.skipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, js, _ := newTestPublisher(t, "")

			js.EXPECT().
				Publish(gomock.Any(), tt.subject, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
					var decoded domain.SyncResult
					require.NoError(t, json.Unmarshal(data, &decoded))
					assert.Equal(t, tt.result.RunID, decoded.RunID)
					return &jetstream.PubAck{Stream: "REGISTRY_EVENTS"}, nil
				})

			require.NoError(t, p.PublishSyncResult(context.Background(), tt.result))
		})
	}
}

func TestPublishSyncResult_CustomPrefix(t *testing.T) {
	p, js, _ := newTestPublisher(t, "baby.events")

	js.EXPECT().
		Publish(gomock.Any(), "baby.events.success", gomock.Any()).
		Return(&jetstream.PubAck{}, nil)

	require.NoError(t, p.PublishSyncResult(context.Background(), &domain.SyncResult{Success: true}))
}

func TestPublishSyncResult_PublishError(t *testing.T) {
	p, js, _ := newTestPublisher(t, "")

	js.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("no responders"))

	err := p.PublishSyncResult(context.Background(), &domain.SyncResult{Success: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no responders")
}

func TestPublishSyncResult_NilResult(t *testing.T) {
	p, _, _ := newTestPublisher(t, "")
	assert.Error(t, p.PublishSyncResult(context.Background(), nil))
}

func TestNewPublisher_ConnectError(t *testing.T) {
	ctrl := gomock.NewController(t)
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	natsJS.EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(nil, nil, errors.New("connection refused"))

	_, err := natspub.NewPublisher(natspub.Config{URL: "nats://nowhere:4222"}, natsJS)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestClose(t *testing.T) {
	p, _, nc := newTestPublisher(t, "")
	nc.EXPECT().Close()
	p.Close()
}
