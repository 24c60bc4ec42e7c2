package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"manualexec/internal/models"
)

func TestHub_PublishDropsForFullSubscriber(t *testing.T) {
	h := NewHub(nil)
	ch := h.Subscribe(1)
	h.Publish(&models.OpsSummary{ManualLoop: models.ManualLoop{Stage: models.StageNeedPlan}})
	h.Publish(&models.OpsSummary{ManualLoop: models.ManualLoop{Stage: models.StagePrepReady}})
	got := <-ch
	if got.ManualLoop.Stage != models.StageNeedPlan {
		t.Fatalf("stage=%s want=%s", got.ManualLoop.Stage, models.StageNeedPlan)
	}
	if last := h.Last(); last == nil || last.ManualLoop.Stage != models.StagePrepReady {
		t.Fatalf("last=%v", last)
	}
	h.Unsubscribe(ch)
	h.Unsubscribe(ch)
	if h.Subscribers() != 0 {
		t.Fatalf("subscribers=%d want=0", h.Subscribers())
	}
}

func TestHub_ServeStreamsSummaries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub(nil)
	h.Publish(&models.OpsSummary{ManualLoop: models.ManualLoop{Stage: models.StageNeedTicket}})
	r := gin.New()
	r.GET("/stream", h.Serve)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var first models.OpsSummary
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.ManualLoop.Stage != models.StageNeedTicket {
		t.Fatalf("stage=%s want=%s", first.ManualLoop.Stage, models.StageNeedTicket)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	h.Publish(&models.OpsSummary{ManualLoop: models.ManualLoop{Stage: models.StageDoneToday}})
	var next models.OpsSummary
	if err := wsjson.Read(ctx, conn, &next); err != nil {
		t.Fatalf("read: %v", err)
	}
	if next.ManualLoop.Stage != models.StageDoneToday {
		t.Fatalf("stage=%s want=%s", next.ManualLoop.Stage, models.StageDoneToday)
	}
}
