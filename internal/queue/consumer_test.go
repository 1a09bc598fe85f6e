package queue

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteActivityFormatsEachType(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		ev   ProjectEvent
		want string
	}{
		{
			name: "request responded",
			ev:   ProjectEvent{Type: EventRequestResponded, ProjectID: 1, ActorID: 3, RequestID: 7, WorkerID: 3, Status: "accepted", OccurredAt: at},
			want: "[2024-05-01T09:30:00Z] worker_request.responded | project_id=1 | actor_id=3 | request_id=7 | worker_id=3 | status=accepted\n",
		},
		{
			name: "worker assigned",
			ev:   ProjectEvent{Type: EventWorkerAssigned, ProjectID: 1, ActorID: 3, WorkerID: 4, Role: "painter", OccurredAt: at},
			want: "[2024-05-01T09:30:00Z] worker.assigned | project_id=1 | actor_id=3 | worker_id=4 | role=painter\n",
		},
		{
			name: "material ordered",
			ev:   ProjectEvent{Type: EventMaterialOrdered, ProjectID: 2, ActorID: 3, MaterialID: 5, Quantity: 8, TotalCostCents: 2000, OccurredAt: at},
			want: "[2024-05-01T09:30:00Z] material.ordered | project_id=2 | actor_id=3 | material_id=5 | quantity=8 | total=2000 cents\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteActivity(&buf, tt.ev))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestConsumerHandleAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity.log")
	c := NewConsumer("", path)

	body, err := json.Marshal(ProjectEvent{Type: EventRequestCreated, ProjectID: 1, ActorID: 2, RequestID: 1, WorkerID: 3, Status: "pending"})
	require.NoError(t, err)
	require.NoError(t, c.handle(body))
	require.NoError(t, c.handle(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
	assert.Contains(t, string(data), "worker_request.created | project_id=1")

	assert.Error(t, c.handle([]byte("not json")))
}
