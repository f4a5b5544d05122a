package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/mwalimu/darasa/apps/api/echo"
	"github.com/mwalimu/darasa/core"
	"github.com/mwalimu/darasa/core/course"
	"github.com/mwalimu/darasa/core/schedule"
	"github.com/mwalimu/darasa/core/user"
	emailsvc "github.com/mwalimu/darasa/services/email"
	logsvc "github.com/mwalimu/darasa/services/logger"
	storagesvc "github.com/mwalimu/darasa/services/storage"
	inmemdb "github.com/mwalimu/darasa/storage/database/inmem"
)

var (
	usrRepo  user.Repository
	usrSvc   user.ServiceInterface
	crsSvc   course.ServiceInterface
	schedSvc schedule.ServiceInterface

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errPermDenied   = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func init() {
	core.Conf.Debug = false
	core.Conf.TestMode = true
}

func setup(t *testing.T) Server {
	t.Helper()

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	schedRepo := inmemdb.NewScheduleRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	fileSvc := storagesvc.NewDummyService()
	usrSvc = user.NewServiceMock(usrRepo, mailSvc)
	crsSvc = course.NewService(crsRepo, usrSvc, mailSvc, fileSvc)
	schedSvc = schedule.NewService(schedRepo)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), core.Conf),
			UserSvc:        usrSvc,
			CourseSvc:      crsSvc,
			ScheduleSvc:    schedSvc,
		},
	)
}

func createUser(t *testing.T, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsActive:  &isActive,
		Roles:     roles,
		CreatedAt: time.Now().UTC(),
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword() failed: %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func createCourse(t *testing.T, owner user.User, name string) course.Course {
	t.Helper()
	crs, err := crsSvc.Create(context.Background(), owner, course.NewCourse{Name: name})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return crs
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
