package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/wastewatch/internal/client/client"
	"github.com/dmitrijs2005/wastewatch/internal/client/config"
	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInputs feeds the given answers to successive getSimpleText calls and
// returns password for getPassword. The slice handed out is recorded so
// tests can check it was wiped.
func stubInputs(t *testing.T, answers []string, password string) *[]byte {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})

	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		i++
		return answers[i-1], nil
	}

	var handed []byte
	getPassword = func(_ io.Writer) ([]byte, error) {
		handed = []byte(password)
		return handed, nil
	}
	return &handed
}

type fakeAPI struct {
	signupName, signupEmail, signupPass string
	signupErr                           error

	signinEmail, signinPass string
	session                 *client.Session
	signinErr               error

	dashToken string
	dash      *client.Dashboard
	dashErr   error

	pingErr error
}

func (f *fakeAPI) Signup(_ context.Context, name, email string, pw []byte) error {
	f.signupName, f.signupEmail, f.signupPass = name, email, string(pw)
	return f.signupErr
}

func (f *fakeAPI) Signin(_ context.Context, email string, pw []byte) (*client.Session, error) {
	f.signinEmail, f.signinPass = email, string(pw)
	return f.session, f.signinErr
}

func (f *fakeAPI) Dashboard(_ context.Context, token string) (*client.Dashboard, error) {
	f.dashToken = token
	return f.dash, f.dashErr
}

func (f *fakeAPI) Ping(context.Context) error { return f.pingErr }

func newTestApp(api client.Client) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return newApp(&config.Config{ServerURL: "http://test"}, api, strings.NewReader(""), &out), &out
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func TestRegister_Success(t *testing.T) {
	handed := stubInputs(t, []string{"Ann", "ann@x.io"}, "pw1234")
	api := &fakeAPI{}
	app, out := newTestApp(api)

	require.NoError(t, app.Register(context.Background()))
	assert.Equal(t, "Ann", api.signupName)
	assert.Equal(t, "ann@x.io", api.signupEmail)
	assert.Equal(t, "pw1234", api.signupPass)
	assert.True(t, allZero(*handed), "password must be wiped")
	assert.Contains(t, out.String(), "Registered")
	assert.False(t, app.isLoggedIn())
}

func TestRegister_ReportsFieldErrors(t *testing.T) {
	stubInputs(t, []string{"", "bad"}, "1")
	api := &fakeAPI{signupErr: &client.APIError{
		Status:  400,
		Message: "Validation failed",
		Fields:  map[string]string{"name": "is required", "email": "is not a valid email address"},
	}}
	app, out := newTestApp(api)

	err := app.Register(context.Background())
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, out.String(), "Registration failed: Validation failed")
	assert.Contains(t, out.String(), "  email is not a valid email address\n  name is required\n")
}

func TestLogin_Success(t *testing.T) {
	handed := stubInputs(t, []string{"ann@x.io"}, "pw1234")
	api := &fakeAPI{session: &client.Session{Token: "tok", User: client.User{ID: "u1", Name: "Ann", Email: "ann@x.io"}}}
	app, out := newTestApp(api)

	require.NoError(t, app.Login(context.Background()))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "(ann@x.io)", app.status())
	assert.Contains(t, out.String(), "Logged in as Ann")
	assert.True(t, allZero(*handed))
}

func TestLogin_Failure(t *testing.T) {
	stubInputs(t, []string{"ann@x.io"}, "wrong")
	api := &fakeAPI{signinErr: &client.APIError{Status: 401, Message: "Incorrect password"}}
	app, out := newTestApp(api)

	err := app.Login(context.Background())
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Incorrect password")
}

func TestLogin_InputError(t *testing.T) {
	stubInputs(t, nil, "")
	app, _ := newTestApp(&fakeAPI{})

	require.ErrorIs(t, app.Login(context.Background()), io.EOF)
}

func TestDashboard(t *testing.T) {
	api := &fakeAPI{dash: &client.Dashboard{Message: "Welcome to the Dashboard, Ann!"}}
	api.dash.User.ID = "u1"
	api.dash.User.Email = "ann@x.io"
	api.dash.User.Joined = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	app, out := newTestApp(api)

	require.ErrorIs(t, app.Dashboard(context.Background()), ErrNotLoggedIn)

	app.session = &client.Session{Token: "tok"}
	require.NoError(t, app.Dashboard(context.Background()))
	assert.Equal(t, "tok", api.dashToken)
	assert.Contains(t, out.String(), "Welcome to the Dashboard, Ann!")
	assert.Contains(t, out.String(), "joined: 2026-03-01")
}

func TestDashboard_RejectedTokenDropsSession(t *testing.T) {
	api := &fakeAPI{dashErr: &client.APIError{Status: 403, Message: "Invalid or expired token"}}
	app, _ := newTestApp(api)
	app.session = &client.Session{Token: "old"}

	require.Error(t, app.Dashboard(context.Background()))
	assert.False(t, app.isLoggedIn())
}

func TestDashboard_ServerDownKeepsSession(t *testing.T) {
	api := &fakeAPI{dashErr: errors.Join(client.ErrUnavailable, errors.New("refused"))}
	app, _ := newTestApp(api)
	app.session = &client.Session{Token: "tok"}

	require.Error(t, app.Dashboard(context.Background()))
	assert.True(t, app.isLoggedIn())
}

func TestLogout(t *testing.T) {
	app, _ := newTestApp(&fakeAPI{})
	app.session = &client.Session{Token: "tok"}

	require.NoError(t, app.Logout(context.Background()))
	assert.False(t, app.isLoggedIn())
	assert.Equal(t, "", app.status())
}

func TestRun_WarnsWhenServerUnreachable(t *testing.T) {
	var printed []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		printed = append(printed, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })

	app, _ := newTestApp(&fakeAPI{pingErr: client.ErrUnavailable})
	app.Run(context.Background())

	require.NotEmpty(t, printed)
	assert.Contains(t, strings.Join(printed, "\n"), "is not reachable")
}
