package arrivals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/subwayviz/models"
)

const sampleResponse = `{
	"errorMessage": {"status": 200, "code": "INFO-000", "message": "정상 처리되었습니다.", "total": 2},
	"realtimeArrivalList": [
		{"subwayId": "1002", "updnLine": "내선", "trainLineNm": "성수행 - 을지로입구방면", "statnNm": "시청", "bstatnNm": "성수", "arvlMsg2": "3분 후 (충정로)", "arvlMsg3": "충정로", "arvlCd": "99", "barvlDt": "180", "recptnDt": "2024-11-20 10:00:00"},
		{"subwayId": "1001", "trainLineNm": "광운대행 - 종각방면", "arvlMsg2": "전역 도착"}
	]
}`

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, *atomic.Value) {
	t.Helper()
	var calls atomic.Int32
	var lastPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		lastPath.Store(r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &lastPath
}

func TestFetchSuccess(t *testing.T) {
	srv, calls, _ := newTestServer(t, http.StatusOK, sampleResponse)
	c := NewClient(srv.URL, "KEY")

	records, err := c.Fetch(context.Background(), "시청")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "성수행 - 을지로입구방면", records[0].LineName)
	assert.Equal(t, "3분 후 (충정로)", records[0].ArrivalMessage)
	assert.Equal(t, "1002", records[0].SubwayID)
	assert.Equal(t, "내선", records[0].Direction)
	assert.Equal(t, "성수", records[0].Destination)
	assert.Equal(t, "180", records[0].ArrivalSeconds)
	assert.Equal(t, "전역 도착", records[1].ArrivalMessage)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRequestPath(t *testing.T) {
	srv, _, lastPath := newTestServer(t, http.StatusOK, sampleResponse)
	c := NewClient(srv.URL+"/", "KEY")

	_, err := c.Fetch(context.Background(), "서울역")
	require.NoError(t, err)

	assert.Equal(t, "/KEY/json/realtimeStationArrival/0/5/%EC%84%9C%EC%9A%B8%EC%97%AD", lastPath.Load())
}

func TestRequestURLEmptyStation(t *testing.T) {
	c := NewClient("http://example.test/api/subway", "KEY")
	assert.Equal(t, "http://example.test/api/subway/KEY/json/realtimeStationArrival/0/5/", c.RequestURL(""))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", "KEY")
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Zero(t, c.client.Timeout)
}

func TestFetchEmptyResult(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty list", `{"realtimeArrivalList": []}`},
		{"null list", `{"realtimeArrivalList": null}`},
		{"absent list", `{}`},
		{"upstream not found", `{"status": 500, "code": "INFO-200", "message": "해당하는 데이터가 없습니다.", "total": 0}`},
		{"null body", `null`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, calls, _ := newTestServer(t, http.StatusOK, tc.body)
			c := NewClient(srv.URL, "KEY")

			records, err := c.Fetch(context.Background(), "없는역")
			require.Error(t, err)
			assert.Nil(t, records)
			assert.True(t, errors.Is(err, ErrEmptyResult), "got %v", err)
			assert.Equal(t, KindEmptyResult, KindOf(err))
			assert.Equal(t, int32(1), calls.Load(), "no retry")
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"bad gateway", http.StatusBadGateway, ``},
		{"malformed json", http.StatusOK, `{"realtimeArrivalList": [`},
		{"html body", http.StatusOK, `<html>maintenance</html>`},
		{"array body", http.StatusOK, `[]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, calls, _ := newTestServer(t, tc.status, tc.body)
			c := NewClient(srv.URL, "KEY")

			records, err := c.Fetch(context.Background(), "시청")
			require.Error(t, err)
			assert.Nil(t, records)
			assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
			assert.Equal(t, KindTransport, KindOf(err))
			assert.Equal(t, int32(1), calls.Load(), "no retry")
		})
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c := NewClient(baseURL, "KEY")
	_, err := c.Fetch(context.Background(), "시청")

	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestFetchCanceledContext(t *testing.T) {
	srv, _, _ := newTestServer(t, http.StatusOK, sampleResponse)
	c := NewClient(srv.URL, "KEY")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "시청")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestFetchReturnsFreshSlices(t *testing.T) {
	srv, _, _ := newTestServer(t, http.StatusOK, sampleResponse)
	c := NewClient(srv.URL, "KEY")

	first, err := c.Fetch(context.Background(), "시청")
	require.NoError(t, err)
	first[0].LineName = "changed"

	second, err := c.Fetch(context.Background(), "시청")
	require.NoError(t, err)
	assert.Equal(t, "성수행 - 을지로입구방면", second[0].LineName)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindEmptyResult, KindOf(ErrEmptyResult))
	assert.Equal(t, KindTransport, KindOf(ErrTransport))
	assert.Equal(t, KindTransport, KindOf(errors.New("other")))
	assert.Equal(t, "EmptyResult", KindEmptyResult.String())
	assert.Equal(t, "TransportError", KindTransport.String())
}

func TestFetchToleratesOddEntries(t *testing.T) {
	body := `{"realtimeArrivalList": [
		{"trainLineNm": "A", "arvlMsg2": "3분"},
		{"trainLineNm": "B", "arvlMsg2": "5분", "barvlDt": 180, "arvlCd": 1},
		{"trainLineNm": "C", "arvlMsg2": "9분", "recptnDt": {"nested": true}, "updnLine": ["상행"]},
		{"trainLineNm": null, "arvlMsg2": "전역 도착"},
		"not an object",
		null
	]}`
	srv, _, _ := newTestServer(t, http.StatusOK, body)
	c := NewClient(srv.URL, "KEY")

	records, err := c.Fetch(context.Background(), "시청")
	require.NoError(t, err)
	require.Len(t, records, 6)

	assert.Equal(t, "A", records[0].LineName)
	assert.Equal(t, "180", records[1].ArrivalSeconds)
	assert.Equal(t, "1", records[1].ArrivalCode)
	assert.Equal(t, "5분", records[1].ArrivalMessage)
	assert.Equal(t, "C", records[2].LineName)
	assert.Equal(t, "9분", records[2].ArrivalMessage)
	assert.Empty(t, records[2].ReceivedAtString)
	assert.Empty(t, records[2].Direction)
	assert.Empty(t, records[3].LineName)
	assert.Equal(t, "전역 도착", records[3].ArrivalMessage)
	assert.Equal(t, models.ArrivalRecord{}, records[4])
	assert.Equal(t, models.ArrivalRecord{}, records[5])
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.ArrivalRecord
		ok   bool
	}{
		{"strings", `{"trainLineNm":"A","arvlMsg2":"3분"}`, models.ArrivalRecord{LineName: "A", ArrivalMessage: "3분"}, true},
		{"number field", `{"trainLineNm":"A","barvlDt":180}`, models.ArrivalRecord{LineName: "A", ArrivalSeconds: "180"}, true},
		{"float kept literal", `{"barvlDt":1.5e2}`, models.ArrivalRecord{ArrivalSeconds: "1.5e2"}, true},
		{"bool field", `{"arvlCd":true}`, models.ArrivalRecord{ArrivalCode: "true"}, true},
		{"null field", `{"bstatnNm":null}`, models.ArrivalRecord{}, true},
		{"object field", `{"trainLineNm":"A","arvlMsg3":{}}`, models.ArrivalRecord{LineName: "A"}, false},
		{"not an object", `42`, models.ArrivalRecord{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := decodeRecord(json.RawMessage(tc.raw))
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}
