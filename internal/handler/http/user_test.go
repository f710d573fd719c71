package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fixmart/fixmart/internal/handler/http/mocks"
	"github.com/fixmart/fixmart/internal/models"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_RegisterUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setup          func(t *testing.T) *mocks.MockUserService
		wantStatusCode int
		wantCookie     bool
	}{
		{
			// 200 — пользователь успешно зарегистрирован и аутентифицирован;
			name: "valid_request_return_200",
			body: `{"login":"ivan","password":"secret","role":"user"}`,
			setup: func(t *testing.T) *mocks.MockUserService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockUserService(ctrl)
				svcMock.EXPECT().Register(gomock.Any(), "ivan", "secret", "user").Return("token-1", nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantCookie:     true,
		},
		{
			// 400 — неверный формат запроса;
			name: "bad_json_return_400",
			body: `{"login":`,
			setup: func(t *testing.T) *mocks.MockUserService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockUserService(ctrl)
				svcMock.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 400 — не пройдена валидация;
			name: "empty_password_return_400",
			body: `{"login":"ivan","role":"user"}`,
			setup: func(t *testing.T) *mocks.MockUserService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockUserService(ctrl)
				svcMock.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", models.ErrValidation).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 409 — логин уже занят;
			name: "duplicate_login_return_409",
			body: `{"login":"ivan","password":"secret","role":"user"}`,
			setup: func(t *testing.T) *mocks.MockUserService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockUserService(ctrl)
				svcMock.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", models.ErrConflictData).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uh := NewUserHandler(tt.setup(t))

			req := httptest.NewRequest(http.MethodPost, "/api/user/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			uh.RegisterUser().ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantCookie {
				cookies := res.Cookies()
				require.Len(t, cookies, 1)
				assert.Equal(t, "auth_token", cookies[0].Name)
				assert.Equal(t, "token-1", cookies[0].Value)
				assert.True(t, cookies[0].HttpOnly)
			}
		})
	}
}

func TestUserHandler_LoginUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setup          func(t *testing.T) *mocks.MockUserService
		wantStatusCode int
	}{
		{
			// 200 — пользователь успешно аутентифицирован;
			name: "valid_request_return_200",
			body: `{"login":"ivan","password":"secret"}`,
			setup: func(t *testing.T) *mocks.MockUserService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockUserService(ctrl)
				svcMock.EXPECT().Login(gomock.Any(), "ivan", "secret").Return("token-1", nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			// 400 — неверный формат запроса;
			name: "bad_json_return_400",
			body: `login=ivan`,
			setup: func(t *testing.T) *mocks.MockUserService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockUserService(ctrl)
				svcMock.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 401 — неверная пара логин/пароль;
			name: "wrong_password_return_401",
			body: `{"login":"ivan","password":"wrong"}`,
			setup: func(t *testing.T) *mocks.MockUserService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockUserService(ctrl)
				svcMock.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return("", models.ErrInvalidCredentials).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uh := NewUserHandler(tt.setup(t))

			req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			uh.LoginUser().ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}
