package portal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobportal/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", func() string { return "tok" }, WithMaxRetries(2))
}

func TestClient_SendsBearerAndRequestID(t *testing.T) {
	var gotAuth, gotID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get("X-Request-ID")
		_, _ = io.WriteString(w, `{"id": 7, "name": "Ana", "email": "a@x.io", "role": "APPLICANT"}`)
	})

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotID)
	assert.Equal(t, model.ID("7"), u.ID)
	assert.Equal(t, "Ana", u.Name)
}

func TestClient_OmitsBearerWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	require.NoError(t, c.SendOTP(context.Background(), " a@x.io "))
	assert.Empty(t, gotAuth)
}

func TestClient_RetriesOn429(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `5`)
	})

	n, err := c.UnreadCount(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.UnreadCount(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_AuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"token expired"}`)
	})

	_, err := c.Notifications(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, "Your session has expired. Please sign in again.", UserMessage(err, "x"))
}

func TestClient_APIErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Invalid OTP"}`)
	})

	err := c.VerifyOTP(context.Background(), "a@x.io", "123456")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid OTP", UserMessage(err, "fallback"))
}

func TestUserMessage_Fallbacks(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil, "x"))
	assert.Equal(t, "fallback", UserMessage(errors.New("boom"), "fallback"))
	assert.Equal(t, "The server took too long to respond.",
		UserMessage(context.DeadlineExceeded, "fallback"))
	assert.Equal(t, "fallback", UserMessage(&APIError{Status: 500}, "fallback"))
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "boom", serverMessage([]byte(`{"message":"boom"}`)))
	assert.Equal(t, "email: required", serverMessage([]byte(`{"errors":{"email":"required"}}`)))
	assert.Equal(t, "plain text", serverMessage([]byte("  plain text \n")))
	assert.Equal(t, "", serverMessage([]byte("<html>oops</html>")))
}

func TestJobPage_PathAndZeroBasedPage(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{"content":[{"id":1,"jobTitle":"Go Dev"},{"id":"2","jobTitle":"SRE"}]}`)
	})

	jobs, err := c.JobPage(context.Background(), model.JobTabSaved, "42", 1, 6)
	require.NoError(t, err)
	assert.Equal(t, "/jobs/saved/42", gotPath)
	assert.Equal(t, "page=1&size=6", gotQuery)
	require.Len(t, jobs, 2)
	assert.Equal(t, "1", jobs[0].Key())
	assert.Equal(t, "SRE", jobs[1].Title)
}

func TestJobCount_UnknownTab(t *testing.T) {
	c := NewClient("http://unused", nil)
	_, err := c.JobCount(context.Background(), model.JobTab("archived"), "1")
	require.Error(t, err)
}

func TestJobCount_Path(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"count": "14"}`)
	})

	n, err := c.JobCount(context.Background(), model.JobTabApplied, "9")
	require.NoError(t, err)
	assert.Equal(t, "/jobs/applied/9/count", gotPath)
	assert.Equal(t, 14, n)
}

func TestJobStatus_FillsJobID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"applicationStatus":"Shortlisted"}}`)
	})

	st, err := c.JobStatus(context.Background(), "1", "77")
	require.NoError(t, err)
	assert.Equal(t, "Shortlisted", st.Status)
	assert.Equal(t, model.ID("77"), st.JobID)
}

func TestMutations_MethodsAndPaths(t *testing.T) {
	type call struct{ method, path string }
	var (
		mu    sync.Mutex
		calls []call
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, c.MarkNotificationRead(ctx, "3"))
	require.NoError(t, c.DeleteNotification(ctx, "3"))
	require.NoError(t, c.DeleteAllNotifications(ctx, "1"))
	require.NoError(t, c.SaveJob(ctx, "1", "5"))
	require.NoError(t, c.RemoveSavedJob(ctx, "1", "5"))
	require.NoError(t, c.MarkAlertSeen(ctx, "8"))
	require.NoError(t, c.DeleteHackathon(ctx, "4"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []call{
		{http.MethodPut, "/notifications/3/read"},
		{http.MethodDelete, "/notifications/3"},
		{http.MethodDelete, "/notifications/user/1"},
		{http.MethodPost, "/jobs/saved/1/5"},
		{http.MethodDelete, "/jobs/saved/1/5"},
		{http.MethodPut, "/alerts/8/seen"},
		{http.MethodDelete, "/hackathons/4"},
	}, calls)
}

func TestCreateHackathon_LocalTimestamps(t *testing.T) {
	var body map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"id": 11, "title": "Build Week"}`)
	})

	start := time.Date(2026, 11, 2, 9, 30, 0, 0, time.UTC)
	h, err := c.CreateHackathon(context.Background(), model.HackathonInput{
		Title:                "Build Week",
		RegistrationDeadline: start.Add(-24 * time.Hour),
		StartAt:              start,
		EndAt:                start.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ID("11"), h.ID)
	assert.Equal(t, "2026-11-02T09:30:00", body["startAt"])
	assert.Equal(t, "2026-11-01T09:30:00", body["registrationDeadline"])
}

func TestDeclareWinners_RequiresSelection(t *testing.T) {
	c := NewClient("http://unused", nil)
	err := c.DeclareWinners(context.Background(), "1", nil)
	require.Error(t, err)
}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2},
		{"data envelope", `{"data":[{"id":1}]}`, 1},
		{"nested envelope", `{"data":{"content":[{"id":1},{"id":2},{"id":3}]}}`, 3},
		{"items", `{"items":[]}`, 0},
		{"null", `null`, 0},
		{"empty", ``, 0},
		{"empty object", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeList[model.Notification](json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	_, err := decodeList[model.Notification](json.RawMessage(`"nope"`))
	assert.Error(t, err)
}

func TestDecodeListRejectsUnknownEnvelope(t *testing.T) {
	_, err := decodeList[model.Notification](json.RawMessage(`{"message":"ok","foo":[{"id":1}]}`))
	require.ErrorIs(t, err, ErrUnknownEnvelope)
	assert.Contains(t, err.Error(), "keys: foo, message")

	_, err = decodeList[model.Notification](json.RawMessage(`{"data":{"page":0}}`))
	assert.ErrorIs(t, err, ErrUnknownEnvelope)
}

func TestDecodeCount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"number", `12`, 12},
		{"string", `"7"`, 7},
		{"count", `{"count":3}`, 3},
		{"total", `{"total":"9"}`, 9},
		{"totalElements", `{"totalElements":40}`, 40},
		{"nested data", `{"data":{"count":2}}`, 2},
		{"array", `[1,2,3,4]`, 4},
		{"null", `null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeCount(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := decodeCount(json.RawMessage(`{"other":1}`))
	assert.Error(t, err)
	_, err = decodeCount(json.RawMessage(`"many"`))
	assert.Error(t, err)
}

func TestDecodeObject_UnwrapsData(t *testing.T) {
	u, err := decodeObject[model.User](json.RawMessage(`{"data":{"id":5,"name":"Bo"},"status":"ok"}`))
	require.NoError(t, err)
	assert.Equal(t, "Bo", u.Name)

	u, err = decodeObject[model.User](json.RawMessage(`{"id":6,"name":"Cy"}`))
	require.NoError(t, err)
	assert.Equal(t, model.ID("6"), u.ID)
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "", query())
	assert.Equal(t, "?page=0&size=6", query("page", "0", "size", "6"))
	assert.Equal(t, "?a=1", query("a", "1", "b", ""))
}
