package tests

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	echoapi "github.com/mwalimu/darasa/apps/api/echo"
	"github.com/mwalimu/darasa/core"
	"github.com/mwalimu/darasa/core/user"
	emailsvc "github.com/mwalimu/darasa/services/email"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero", "hero@test.cd", "LolC@t123", []string{user.RoleStudent}, true)
	naughty := createUser(t, "N Dog", "ndog", "ndog@test.cd", "LolC@t123", []string{user.RoleStudent}, false)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Username: reqMsg, Password: reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: student.Username, Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: naughty.Username, Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login with username", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Username: student.Username, Password: "LolC@t123"}),
		},
		{
			name: "login with email", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Username: student.Email, Password: "LolC@t123"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	path := func(search, ordering string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}

	usr1 := createUser(t, "User", "awe", "awe@test.cd", "", nil, true)
	student := createUser(t, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := createUser(t, "Teacher", "teachr", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	admin := createUser(t, "Admin", "admino", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken,
			wantData: marchallList(t, usr1, student, teacher, admin),
		},
		{name: "search (unknown)", path: path("lol", ""), token: adminToken, wantData: empty},
		{name: "search=hero", path: path("hero", ""), token: adminToken, wantData: marchallList(t, student)},
		{name: "role (unknown)", path: path("", "", "lol"), token: adminToken, wantData: empty},
		{name: "role=teacher:", path: path("", "", user.RoleTeacher), token: adminToken, wantData: marchallList(t, teacher)},
		{
			name: "role=teacher:,student:", path: path("", "", user.RoleTeacher, user.RoleStudent),
			token: adminToken, wantData: marchallList(t, student, teacher),
		},
		{
			name: "order by name", path: path("", "name"), token: adminToken,
			wantData: marchallList(t, admin, student, teacher, usr1),
		},
		{
			name: "order by -name", path: path("", "-name"), token: adminToken,
			wantData: marchallList(t, usr1, teacher, student, admin),
		},
		{
			name: "order by -created_at", path: path("", "-created_at"), token: adminToken,
			wantData: marchallList(t, admin, teacher, student, usr1),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRefreshToken(t *testing.T) {
	app := setup(t)

	naughty := createUser(t, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, false)
	student := createUser(t, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	// a token whose original issue date is older than the refresh threshold
	staleIat := time.Now().Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix()
	unrefreshableToken, err := echoapi.GenerateToken(echoapi.GetUserClaims(student, staleIat))
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userResetPassword(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	pathRegex, err := regexp.Compile("/password-reset/.+/.+")
	if err != nil {
		t.Fatalf("regexp.Compile(): %v", err)
	}

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.Name, Address: student.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					msg := emailsvc.SentMessages[0]
					if msg.To[0] != extra.to {
						t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
					}
					if !strings.Contains(msg.TextContent, extra.to.Name) {
						t.Errorf("failed! text content does not contain recipient's name %q", extra.to.Name)
					}
					if !pathRegex.MatchString(msg.TextContent) {
						t.Errorf("failed! text content does not match pathRegex %v", pathRegex)
					}
				} else {
					if len(emailsvc.SentMessages) > 0 {
						t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
					}
				}
			}
		})
	}
}
