package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	echoapi "github.com/mwalimu/darasa/apps/api/echo"
	"github.com/mwalimu/darasa/core/course"
	"github.com/mwalimu/darasa/core/user"
)

func Test_courseApi_create(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teachr", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := createUser(t, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "required fields", token: getToken(t, teacher), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "created", token: getToken(t, teacher), wantCode: http.StatusCreated,
			body: marchallObj(t, course.NewCourse{Name: "Physics 101", Description: "Mechanics"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/courses"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var crs course.Course
				if err := json.Unmarshal(rec.Body.Bytes(), &crs); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if crs.Name != "Physics 101" {
					t.Errorf("Name = %q; want %q", crs.Name, "Physics 101")
				}
				if crs.OwnerID != teacher.ID {
					t.Errorf("OwnerID = %q; want %q", crs.OwnerID, teacher.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_detailAccess(t *testing.T) {
	app := setup(t)

	owner := createUser(t, "Alice", "alice1", "alice@test.cd", "", []string{user.RoleTeacher}, true)
	outsider := createUser(t, "Bob", "bobbyb", "bob@test.cd", "", []string{user.RoleTeacher}, true)
	student := createUser(t, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	admin := createUser(t, "Admin", "admino", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	crs := createCourse(t, owner, "Physics 101")
	if err := crsSvc.Enroll(context.Background(), crs.ID, student.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	tests := []httpTest{
		{name: "unknown course", path: "/v1/courses/nope", token: getToken(t, owner), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		// non-members cannot even learn the course exists
		{name: "hidden from outsiders", path: "/v1/courses/" + crs.ID, token: getToken(t, outsider), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "owner sees it", path: "/v1/courses/" + crs.ID, token: getToken(t, owner), wantCode: http.StatusOK},
		{name: "enrolled student sees it", path: "/v1/courses/" + crs.ID, token: getToken(t, student), wantCode: http.StatusOK},
		{name: "admin sees it", path: "/v1/courses/" + crs.ID, token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var got course.Course
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if got.ID != crs.ID {
					t.Errorf("ID = %q; want %q", got.ID, crs.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_teacherCodeJoin(t *testing.T) {
	app := setup(t)

	owner := createUser(t, "Alice", "alice1", "alice@test.cd", "", []string{user.RoleTeacher}, true)
	joiner := createUser(t, "Bob", "bobbyb", "bob@test.cd", "", []string{user.RoleTeacher}, true)
	student := createUser(t, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	crs := createCourse(t, owner, "Physics 101")
	if err := crsSvc.Enroll(context.Background(), crs.ID, student.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	// the owner reads the shareable code off the course
	req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/code", getToken(t, owner))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET code failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var codeResp echoapi.TeacherCodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &codeResp); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if want := course.TeacherCode(crs); codeResp.Code != want {
		t.Fatalf("Code = %q; want %q", codeResp.Code, want)
	}

	// students cannot read the code
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/code", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student GET code: code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	joinBody := func(code string) []byte {
		return marchallObj(t, course.JoinCourse{Code: code})
	}
	tests := []httpTest{
		{
			name: "students cannot join", token: getToken(t, student), body: joinBody(codeResp.Code),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "malformed code", token: getToken(t, joiner), body: joinBody("BADCODE"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid teacher code"}),
		},
		{
			name: "well-formed code matching nothing", token: getToken(t, joiner), body: joinBody("TEACH-CHEM-ZZZZ"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "no course matches this teacher code"}),
		},
		{name: "joined", token: getToken(t, joiner), body: joinBody(codeResp.Code), wantCode: http.StatusOK},
		{
			name: "joining again is a conflict", token: getToken(t, joiner), body: joinBody(codeResp.Code),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "user already teaches this course"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/courses/join"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var got course.Course
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if !got.HasCoTeacher(joiner.ID) {
					t.Errorf("joiner %q missing from co-teachers %v", joiner.ID, got.CoTeacherIDs)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_enrollment(t *testing.T) {
	app := setup(t)

	owner := createUser(t, "Alice", "alice1", "alice@test.cd", "", []string{user.RoleTeacher}, true)
	other := createUser(t, "Carol", "carol1", "carol@test.cd", "", []string{user.RoleTeacher}, true)
	student := createUser(t, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	crs := createCourse(t, owner, "Physics 101")
	ownerToken := getToken(t, owner)

	enrollBody := func(id string) []byte {
		return marchallObj(t, echoapi.EnrollRequest{StudentID: id})
	}
	tests := []httpTest{
		{
			name: "only students can be enrolled", token: ownerToken, body: enrollBody(other.ID),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"student_id": "user is not a student"}),
		},
		{
			name: "unknown student", token: ownerToken, body: enrollBody("nope"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{name: "enrolled", token: ownerToken, body: enrollBody(student.ID), wantCode: http.StatusNoContent},
		{
			name: "enrolling again is a conflict", token: ownerToken, body: enrollBody(student.ID),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "student already enrolled in this course"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/courses/" + crs.ID + "/students"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusNoContent {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// the student withdraws themselves, then loses access to the course
	req, rec := newAuthRequest(http.MethodDelete, "/v1/courses/"+crs.ID+"/students/"+student.ID, getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("withdraw: code = %v; want %v", rec.Code, http.StatusNoContent)
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID, getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("withdrawn student access: code = %v; want %v", rec.Code, http.StatusNotFound)
	}
}

func Test_courseApi_submissionsAndPerformance(t *testing.T) {
	app := setup(t)

	owner := createUser(t, "Alice", "alice1", "alice@test.cd", "", []string{user.RoleTeacher}, true)
	st1 := createUser(t, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	st2 := createUser(t, "King", "king01", "king@test.cd", "", []string{user.RoleStudent}, true)

	crs := createCourse(t, owner, "Physics 101")
	ctx := context.Background()
	for _, st := range []user.User{st1, st2} {
		if err := crsSvc.Enroll(ctx, crs.ID, st.ID); err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
	}

	ownerToken := getToken(t, owner)
	st1Token := getToken(t, st1)

	// the owner posts an assignment
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/assignments", ownerToken,
		marchallObj(t, map[string]interface{}{"title": "Homework 1", "due_date": "2026-12-01T00:00:00Z"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create assignment: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var a course.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}

	// st1 submits; a second submission for the same assignment conflicts
	subPath := "/v1/courses/" + crs.ID + "/assignments/" + a.ID + "/submissions"
	req, rec = newAuthRequest(http.MethodPost, subPath, st1Token, marchallObj(t, map[string]string{"content": "my answer"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var sub course.Submission
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	req, rec = newAuthRequest(http.MethodPost, subPath, st1Token, marchallObj(t, map[string]string{"content": "again"}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "assignment already submitted"}),
	}, rec)

	// students cannot grade
	fbPath := "/v1/courses/" + crs.ID + "/submissions/" + sub.ID + "/feedback"
	grade := 85
	fbBody := marchallObj(t, course.NewFeedback{Grade: &grade, Comment: "good work"})
	req, rec = newAuthRequest(http.MethodPost, fbPath, st1Token, fbBody)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)

	// the owner grades
	req, rec = newAuthRequest(http.MethodPost, fbPath, ownerToken, fbBody)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("feedback: code = %v, body = %s", rec.Code, rec.Body.String())
	}

	// performance is for teachers only
	perfPath := "/v1/courses/" + crs.ID + "/performance"
	req, rec = newAuthRequest(http.MethodGet, perfPath, st1Token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)

	req, rec = newAuthRequest(http.MethodGet, perfPath, ownerToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("performance: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var perfs []course.StudentPerformance
	if err := json.Unmarshal(rec.Body.Bytes(), &perfs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(perfs) != 2 {
		t.Fatalf("len(perfs) = %d; want 2", len(perfs))
	}
	for _, p := range perfs {
		switch p.StudentID {
		case st1.ID:
			if p.AverageGrade != 85 || p.Status != course.StatusGood || p.CompletedAssignments != 1 {
				t.Errorf("st1 performance = %+v", p)
			}
		case st2.ID:
			if p.AverageGrade != 0 || p.Status != course.StatusNeedsImprovement || p.CompletedAssignments != 0 {
				t.Errorf("st2 performance = %+v", p)
			}
		default:
			t.Errorf("unexpected student %q", p.StudentID)
		}
	}

	// any member can read the leaderboard
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/leaderboard", st1Token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var board []course.LeaderboardEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(board) == 0 || board[0].StudentID != st1.ID || board[0].Rank != 1 || board[0].Percentage != 85 {
		t.Errorf("leaderboard = %+v", board)
	}
}
