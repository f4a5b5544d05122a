package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/mwalimu/darasa/core/schedule"
	"github.com/mwalimu/darasa/core/user"
)

func Test_scheduleApi_events(t *testing.T) {
	app := setup(t)

	owner := createUser(t, "Alice", "alice1", "alice@test.cd", "", []string{user.RoleTeacher}, true)
	student := createUser(t, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	outsider := createUser(t, "Bob", "bobbyb", "bob@test.cd", "", []string{user.RoleTeacher}, true)

	crs := createCourse(t, owner, "Physics 101")
	if err := crsSvc.Enroll(context.Background(), crs.ID, student.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	ownerToken := getToken(t, owner)
	eventsPath := "/v1/courses/" + crs.ID + "/events"

	now := time.Now().UTC()
	eventBody := func(title string, startsIn time.Duration) []byte {
		return marchallObj(t, schedule.NewEvent{
			Title:    title,
			Location: "Room 4",
			StartsAt: now.Add(startsIn),
			EndsAt:   now.Add(startsIn + time.Hour),
		})
	}

	// students cannot create events
	req, rec := newAuthRequest(http.MethodPost, eventsPath, getToken(t, student), eventBody("Lab session", time.Hour))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)

	// events are hidden from non-members along with the course
	req, rec = newAuthRequest(http.MethodGet, eventsPath, getToken(t, outsider))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)

	// end before start is rejected
	req, rec = newAuthRequest(http.MethodPost, eventsPath, ownerToken, marchallObj(t, schedule.NewEvent{
		Title:    "Backwards",
		StartsAt: now.Add(2 * time.Hour),
		EndsAt:   now.Add(time.Hour),
	}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("end before start: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// the owner schedules two events, out of order
	var evts []schedule.Event
	for _, e := range []struct {
		title    string
		startsIn time.Duration
	}{
		{"Final review", 48 * time.Hour},
		{"Lab session", 2 * time.Hour},
	} {
		req, rec = newAuthRequest(http.MethodPost, eventsPath, ownerToken, eventBody(e.title, e.startsIn))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create event: code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var evt schedule.Event
		if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		evts = append(evts, evt)
	}

	// members list them soonest first
	req, rec = newAuthRequest(http.MethodGet, eventsPath, getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query events: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var listed []schedule.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(listed) != 2 || listed[0].Title != "Lab session" || listed[1].Title != "Final review" {
		t.Errorf("listed events = %+v", listed)
	}

	// upcoming spans every course the user belongs to, capped by limit
	req, rec = newAuthRequest(http.MethodGet, "/v1/events/upcoming?limit=1", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upcoming: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var upcoming []schedule.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &upcoming); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].Title != "Lab session" {
		t.Errorf("upcoming = %+v", upcoming)
	}

	// outsiders see no events at all
	req, rec = newAuthRequest(http.MethodGet, "/v1/events/upcoming", getToken(t, outsider))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upcoming (outsider): code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var none []schedule.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &none); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(none) != 0 {
		t.Errorf("upcoming (outsider) = %+v", none)
	}

	// update and delete are scoped to the course
	updBody := marchallObj(t, schedule.UpdateEvent{
		Title:    "Lab session (moved)",
		StartsAt: evts[1].StartsAt,
		EndsAt:   evts[1].EndsAt,
	})
	req, rec = newAuthRequest(http.MethodPut, eventsPath+"/"+evts[1].ID, ownerToken, updBody)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update event: code = %v, body = %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodDelete, eventsPath+"/nope", ownerToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)

	req, rec = newAuthRequest(http.MethodDelete, eventsPath+"/"+evts[0].ID, ownerToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete event: code = %v, body = %s", rec.Code, rec.Body.String())
	}
}
