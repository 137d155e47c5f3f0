package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/gwillem/algae/pkg/intake"
)

type fakeCommander struct {
	modes []intake.Mode
	idles int
}

func (f *fakeCommander) RequestMode(m intake.Mode) { f.modes = append(f.modes, m) }
func (f *fakeCommander) Idle()                     { f.idles++ }

func TestTable(t *testing.T) {
	Convey("Given a telemetry table", t, func() {
		table := NewTable()

		Convey("published numbers can be read back", func() {
			table.PutNumber(intake.KeyArmPosition, 3.5)
			v, ok := table.Number(intake.KeyArmPosition)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 3.5)

			_, ok = table.Number(intake.KeyCurrentDraw)
			So(ok, ShouldBeFalse)
		})

		Convey("a snapshot is a copy", func() {
			table.PutNumber(intake.KeyMode, 1)
			snap, updated := table.Snapshot()
			snap[intake.KeyMode] = 99
			v, _ := table.Number(intake.KeyMode)
			So(v, ShouldEqual, 1)
			So(updated.IsZero(), ShouldBeFalse)
		})

		Convey("subscribers are signalled without blocking the publisher", func() {
			ch, unsubscribe := table.Subscribe()
			for i := 0; i < 10; i++ {
				table.PutNumber(intake.KeyArmPosition, float64(i))
			}
			So(len(ch), ShouldEqual, 1)

			unsubscribe()
			<-ch
			table.PutNumber(intake.KeyArmPosition, 0)
			So(len(ch), ShouldEqual, 0)
		})
	})
}

func TestServer(t *testing.T) {
	Convey("Given a dashboard server", t, func() {
		table := NewTable()
		cmd := &fakeCommander{}
		s := NewServer(table, cmd)
		table.PutNumber(intake.KeyArmPosition, 11.5)

		Convey("GET /api/telemetry returns the snapshot", func() {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/telemetry", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)

			var snap Snapshot
			So(json.Unmarshal(rec.Body.Bytes(), &snap), ShouldBeNil)
			So(snap.Session, ShouldEqual, s.Session())
			So(snap.Values[intake.KeyArmPosition], ShouldEqual, 11.5)
		})

		Convey("POST /api/mode forwards a valid mode", func() {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/mode/reverse-intake", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(cmd.modes, ShouldResemble, []intake.Mode{intake.ReverseIntake})
			So(rec.Body.String(), ShouldContainSubstring, `"reverse-intake"`)
		})

		Convey("POST /api/mode rejects an unknown mode", func() {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/mode/launch", nil))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(cmd.modes, ShouldBeEmpty)
		})

		Convey("POST /api/idle falls back to the resting mode", func() {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/idle", nil))
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(cmd.idles, ShouldEqual, 1)
		})

		Convey("a websocket client receives the snapshot and each update", func() {
			ts := httptest.NewServer(s.Handler())
			defer ts.Close()

			url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer conn.Close()
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))

			var first Snapshot
			So(conn.ReadJSON(&first), ShouldBeNil)
			So(first.Values[intake.KeyArmPosition], ShouldEqual, 11.5)

			table.PutNumber(intake.KeyArmPosition, 18.5)

			var next Snapshot
			So(conn.ReadJSON(&next), ShouldBeNil)
			So(next.Values[intake.KeyArmPosition], ShouldEqual, 18.5)
		})
	})
}
